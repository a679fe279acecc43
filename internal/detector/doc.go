// Package detector provides hand detection interfaces and types for gesture
// recognition.
//
// MediaPipeDetector runs scripts/landmark_service.py as a child process:
//
//	python landmark_service.py --max-hands N --min-detection F --min-tracking F
//
// Each request on the child's stdin is one frame: a 4-byte big-endian length
// followed by that many bytes of JPEG. The child answers every frame with
// exactly one JSON line on stdout:
//
//	{"hands":[{"points":[{"x":0.5,"y":0.8,"z":0,"visibility":0.9}, ...],
//	           "handedness":"Right","score":0.97}]}
//
// points holds up to 21 landmarks in MediaPipe order with x and y
// normalized to the image. visibility is optional and defaults to 1.0;
// landmarks missing from the list count as not visible. A frame with no
// hand is answered with {"hands":[]}. Closing stdin stops the child.
package detector
