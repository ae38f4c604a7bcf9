/*
DESCRIPTION
  tracks.go provides FixTracks, the post processing applied to the tracks of
  a segment before they are reported.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package executor

import (
	"fmt"

	"github.com/ausocean/streamdetect/detection"
	"github.com/ausocean/streamdetect/exit"
	"github.com/ausocean/utils/logging"
)

// ReverseTransformer maps track locations back to the coordinate space of
// the stream's frames.
type ReverseTransformer interface {
	ReverseTransform(tracks []detection.Track) error
}

// FixTracks prepares the tracks of the segment frames start to stop for
// reporting. In order, it:
//   - drops locations outside the segment, and corrects the start and stop
//     frame of each track to its remaining locations;
//   - drops locations with confidence below threshold, recomputing the start
//     and stop frames;
//   - maps the locations back to the stream's coordinate space with rt.
//
// Tracks left without locations are dropped.
func FixTracks(tracks []detection.Track, start, stop int, threshold float64, rt ReverseTransformer, log logging.Logger) ([]detection.Track, error) {
	tracks = filterSegment(tracks, start, stop, log)
	tracks = filterConfidence(tracks, threshold, log)
	err := rt.ReverseTransform(tracks)
	if err != nil {
		return nil, exit.Wrap(exit.UnexpectedError, err, "could not reverse transform tracks")
	}
	return tracks, nil
}

// filterSegment drops locations outside frames start to stop and sets the
// start and stop frame of each track to the bounds of what remains.
func filterSegment(tracks []detection.Track, start, stop int, log logging.Logger) []detection.Track {
	kept := tracks[:0]
	for i, t := range tracks {
		for n := range t.Locations {
			if n < start || n > stop {
				log.Warning("dropping detection outside segment", "track", i, "frame", n, "segment", fmt.Sprintf("%d-%d", start, stop))
				delete(t.Locations, n)
			}
		}

		first, last, ok := t.Bounds()
		if !ok {
			log.Warning("dropping track with no detections in segment", "track", i, "start", t.StartFrame, "stop", t.StopFrame)
			continue
		}
		if t.StartFrame != first || t.StopFrame != last {
			log.Warning("correcting track frame range", "track", i, "from", fmt.Sprintf("%d-%d", t.StartFrame, t.StopFrame), "to", fmt.Sprintf("%d-%d", first, last))
			t.StartFrame, t.StopFrame = first, last
		}
		kept = append(kept, t)
	}
	return kept
}

// filterConfidence drops locations with confidence below threshold and sets
// the start and stop frame of each track to the bounds of what remains.
func filterConfidence(tracks []detection.Track, threshold float64, log logging.Logger) []detection.Track {
	kept := tracks[:0]
	for i, t := range tracks {
		for n, l := range t.Locations {
			if l.Confidence < threshold {
				delete(t.Locations, n)
			}
		}

		first, last, ok := t.Bounds()
		if !ok {
			log.Debug("dropping track with no detections above confidence threshold", "track", i, "threshold", threshold)
			continue
		}
		t.StartFrame, t.StopFrame = first, last
		kept = append(kept, t)
	}
	return kept
}
