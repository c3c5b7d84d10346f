/*
go-footfall counts people walking through a camera's field of view.  Person
detections from each video frame are fed to an Engine which links them into
tracks by centroid distance and records an entry or exit each time a track
crosses a horizontal counting line.

The Engine does no I/O.  Detections come from the detector package, which
runs a YOLOv8 ONNX model through OpenCV, or from a recorded stream read with
the replay package.  The render package draws tracks, the line and counts
onto frames, metrics exports the counts to Prometheus and eventlog stores
crossing events in SQLite.

See example code and usage in the example subdirectory.
*/
package footfall
