package commands

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/00001101-xt/bartrack/pkg/audio/flux"
)

var (
	decodeBeats    string
	decodeFeatures string
	decodePCM      string
	decodeRate     int
)

var decodeCmd = &cobra.Command{
	Use:   "decode --patterns <file> --beats <file> (--features <file> | --pcm <file>)",
	Short: "Batch decoding of a recording",
	Long: `Decode bar positions for a whole recording at once (exact Viterbi).

Beats are read from a text file with one timestamp (seconds) per line.
Features come either from a text file with one whitespace-separated
feature vector per line, or are extracted from raw PCM audio
(--pcm, 16-bit little-endian mono at --rate) with the built-in spectral
flux front end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tr, err := buildTracker()
		if err != nil {
			return err
		}
		beats, err := readBeats(decodeBeats)
		if err != nil {
			return err
		}

		var features [][]float64
		switch {
		case decodeFeatures != "" && decodePCM != "":
			return fmt.Errorf("--features and --pcm are mutually exclusive")
		case decodeFeatures != "":
			features, err = readFeatures(decodeFeatures)
		case decodePCM != "":
			features, err = extractFeatures(decodePCM, decodeRate)
		default:
			return fmt.Errorf("one of --features or --pcm is required")
		}
		if err != nil {
			return err
		}

		records, err := tr.Decode(beats, features)
		if err != nil {
			return err
		}
		out := bufio.NewWriter(os.Stdout)
		defer out.Flush()
		for i := range records {
			writeRecord(out, &records[i])
		}
		return nil
	},
}

// readBeats loads one beat timestamp per line. Annotation files may carry
// a second column (the annotated beat number); it is ignored.
func readBeats(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var beats []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		beats = append(beats, t)
	}
	return beats, scanner.Err()
}

// readFeatures loads one whitespace-separated feature vector per line.
func readFeatures(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var features [][]float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		vec := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			vec[i] = v
		}
		features = append(features, vec)
	}
	return features, scanner.Err()
}

// extractFeatures runs the spectral flux front end over raw 16-bit
// little-endian mono PCM.
func extractFeatures(path string, sampleRate int) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pcm := make([]float32, len(data)/2)
	for i := range pcm {
		s := int16(binary.LittleEndian.Uint16(data[i*2:]))
		pcm[i] = float32(s) / math.MaxInt16
	}

	cfg := flux.DefaultConfig()
	cfg.SampleRate = sampleRate
	values := flux.New(cfg).Extract(pcm)

	features := make([][]float64, len(values))
	for i, v := range values {
		features[i] = []float64{v}
	}
	return features, nil
}

func init() {
	addTrackingFlags(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeBeats, "beats", "", "beat timestamps file (one per line)")
	decodeCmd.Flags().StringVar(&decodeFeatures, "features", "", "per-frame features file (one vector per line)")
	decodeCmd.Flags().StringVar(&decodePCM, "pcm", "", "raw 16-bit LE mono PCM file; features are extracted internally")
	decodeCmd.Flags().IntVar(&decodeRate, "rate", 44100, "PCM sample rate in Hz (with --pcm)")
	rootCmd.AddCommand(decodeCmd)
}
