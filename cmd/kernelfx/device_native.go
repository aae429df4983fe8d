//go:build !nogpu

package main

import (
	"github.com/gogpu/kernelfx/backend"
	"github.com/gogpu/kernelfx/backend/native"
)

func init() {
	deviceConstructors[backend.BackendNative] = func(dc DeviceConfig) backend.Device {
		opts := []native.Option{native.WithFenceTimeout(dc.FenceTimeout)}
		if dc.Adapter != "" {
			opts = append(opts, native.WithAdapter(dc.Adapter))
		}
		return native.New(opts...)
	}
}
