// Package audio provides audio processing utilities.
//
// This package serves as an umbrella for audio-related sub-packages:
//
//   - flux: spectral flux onset feature extraction from raw PCM
package audio
