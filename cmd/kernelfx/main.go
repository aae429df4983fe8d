// Command kernelfx applies GPU compute filters to a directory of images.
//
//	kernelfx run --input input --output output --filters sobel,blur --composite
//	kernelfx filters
//	kernelfx backends
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
