// Package mask provides the binary foreground mask used by the brick finder,
// the color classifier that produces it, and window-based morphology.
//
// # Layout
//
// A Mask is a dense rows × cols grid stored row-major. Row 0 is the top of the
// image and column 0 is the leftmost pixel, matching the image convention used
// everywhere else in this module.
//
// # Morphology
//
// Closing and Opening each perform a single pass over the mask with a
// rectangular window of odd width and height:
//
//   - Closing sets an interior pixel when any pixel in its window is set
//     (a dilation).
//   - Opening clears an interior pixel when any pixel in its window is clear
//     (an erosion).
//
// These are intentionally not the textbook compound operators (dilate then
// erode, erode then dilate). The brick thresholds downstream were tuned against
// the single-pass behavior, so the names are kept and the semantics preserved.
//
// Pixels whose window would extend past the mask edge are copied unchanged.
// Both operations allocate a new mask and never modify their input.
//
// # Classification
//
// FromImage turns a decoded image into a Mask using a Classifier. The stock
// classifier is HSVRange, an inclusive range check on the OpenCV 8-bit HSV
// scale (hue 0-180, saturation and value 0-255).
package mask
