//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  mog_stub.go replaces the MOG detector in builds without OpenCV.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package motion

import "github.com/ausocean/streamdetect/detection"

// NewMOG always fails; the MOG detector requires a build with the withcv tag.
func NewMOG(props detection.Properties) (Detector, error) {
	return nil, detection.InvalidProperty(PropAlgorithm, MOG, "requires a build with OpenCV")
}
