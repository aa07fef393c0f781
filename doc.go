// Package yuyv converts packed 4:2:2 camera frames (YUYV / YUY2: one
// Y0 U Y1 V cell per pair of pixels) into opaque RGBA images.
//
// Chroma is upsampled horizontally with a 4-tap (-1, 9, 9, -1)/16 filter at
// odd output columns and converted with the BT.601 broadcast-range integer
// transform. Every output pixel is an independent pure function of its
// coordinate, so a pass is split into row bands and run on a persistent
// worker pool; the result is byte-identical for any worker count or order.
//
// Basic usage:
//
//	f, err := yuyv.ReadFrame(r, 640, 480)
//	if err != nil {
//		return err
//	}
//	defer f.Release()
//	img, err := yuyv.ConvertImage(f, yuyv.ConfigFor(f))
//
// Long-running pipelines create their own Converter to control the worker
// count and close it when done:
//
//	conv, err := yuyv.NewConverter(&yuyv.Options{Workers: 4})
//	defer conv.Close()
//	err = conv.Convert(dst, f, cfg)
package yuyv
