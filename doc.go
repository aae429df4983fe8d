// Package kernelfx applies convolution and threshold image filters by
// running each filter's numeric kernel on a compute device.
//
// # Overview
//
// A Filter supplies a WGSL compute program, its entry point, and a
// routine deriving a parameter vector from the image's luminance. The
// Pipeline decides, per filter, whether the kernel runs once on the
// luminance plane or three times on the red, green and blue planes,
// dispatches it through a Dispatcher, and recomposes the output planes
// into a displayable image.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/kernelfx"
//		"github.com/gogpu/kernelfx/backend"
//		_ "github.com/gogpu/kernelfx/backend/native"
//		_ "github.com/gogpu/kernelfx/backend/software"
//		"github.com/gogpu/kernelfx/imageio"
//	)
//
//	dev, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	img, err := imageio.Load("input.png")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	p := kernelfx.NewPipeline(kernelfx.NewDispatcher(dev))
//	results := p.Run(img, []kernelfx.Filter{kernelfx.Sobel{}, kernelfx.NewGaussianBlur(5, 1)})
//	for _, r := range results {
//		if r.Err != nil {
//			log.Printf("%s: %v", r.Name, r.Err)
//		}
//	}
//
// # Channel Modes
//
//   - ModeLuminance: one dispatch on the grayscale plane, output broadcast
//     to gray RGB (edge detectors)
//   - ModeChannels: three dispatches, outputs clamped and repacked (blur,
//     dithering)
//   - ModeChannelsAdditive: three dispatches, outputs added to the source
//     channels before clamping (sharpening)
//
// Built-in filters declare their mode. Filters that do not are looked up
// by entry point in a Policy table and default to ModeLuminance.
//
// # Errors
//
// Dispatch failures are *DispatchError values classified by kind; use
// errors.Is with ErrProgramBuild, ErrResource, ErrLaunch, ErrReadback or
// ErrParameter. A failing filter never stops the remaining filters.
//
// # Logging
//
// kernelfx is silent by default. Call SetLogger with a *slog.Logger to
// enable logging for kernelfx and its backends.
package kernelfx
