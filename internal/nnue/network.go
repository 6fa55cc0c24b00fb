// Package nnue implements the quantised neural evaluator: a single hidden
// layer fed by king-bucketed piece-square features, maintained incrementally
// by the accumulator in accumulator.go.
package nnue

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sorenvik/corvid/internal/board"
)

// Architecture constants. The input layer has one feature per
// (piece colour, piece type, square) triple for each king bucket; the hidden
// layer is shared by both perspectives.
const (
	// HiddenSize is the width of the hidden layer per perspective.
	HiddenSize = 256

	// KingBuckets partitions the 64 squares of the own king into regions;
	// every feature index is relative to the bucket the king sits in.
	KingBuckets = 4

	// FeaturesPerBucket is 2 colours x 6 piece types x 64 squares.
	FeaturesPerBucket = 768

	// InputSize is the total feature count across all king buckets.
	InputSize = KingBuckets * FeaturesPerBucket
)

// Quantisation constants. Hidden-layer activations are clipped to [0, QA] and
// all weights are integer; the final dot product is rescaled to centipawns by
// Scale / (QA * QB).
const (
	QA    = 255
	QB    = 64
	Scale = 400
)

// Network holds the quantised parameters. The in-memory order matches the
// serialised layout: feature weights, feature biases, output weights, output
// bias.
type Network struct {
	// FeatureWeights is indexed [feature*HiddenSize + neuron].
	FeatureWeights []int16
	FeatureBiases  [HiddenSize]int16
	OutputWeights  [2 * HiddenSize]int16
	OutputBias     int16
}

// Load reads a parameter blob: little-endian int16s in the order layer-0
// weights (feature-major), layer-0 biases, layer-1 weights (side-to-move half
// first), layer-1 bias.
func Load(r io.Reader) (*Network, error) {
	br := bufio.NewReaderSize(r, 1<<20)

	net := &Network{
		FeatureWeights: make([]int16, InputSize*HiddenSize),
	}
	if err := readInt16s(br, net.FeatureWeights); err != nil {
		return nil, fmt.Errorf("feature weights: %w", err)
	}
	if err := readInt16s(br, net.FeatureBiases[:]); err != nil {
		return nil, fmt.Errorf("feature biases: %w", err)
	}
	if err := readInt16s(br, net.OutputWeights[:]); err != nil {
		return nil, fmt.Errorf("output weights: %w", err)
	}
	var bias [1]int16
	if err := readInt16s(br, bias[:]); err != nil {
		return nil, fmt.Errorf("output bias: %w", err)
	}
	net.OutputBias = bias[0]

	return net, nil
}

// LoadFile reads a network from the given path.
func LoadFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func readInt16s(r io.Reader, dst []int16) error {
	buf := make([]byte, 2*len(dst))
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return nil
}

// crelu clips a pre-activation into [0, QA].
func crelu(v int16) int32 {
	if v < 0 {
		return 0
	}
	if v > QA {
		return QA
	}
	return int32(v)
}

// Evaluate runs the output layer over the accumulator: clipped-ReLU on both
// perspective halves, side to move first, dot product with the output
// weights, then rescale to centipawns. Hidden values stay 16-bit, the sum is
// 32-bit.
func (net *Network) Evaluate(acc *Accumulator, stm board.Color) int {
	us := &acc.Perspectives[stm]
	them := &acc.Perspectives[stm.Other()]

	var sum int32
	for i := 0; i < HiddenSize; i++ {
		sum += crelu(us[i]) * int32(net.OutputWeights[i])
	}
	for i := 0; i < HiddenSize; i++ {
		sum += crelu(them[i]) * int32(net.OutputWeights[HiddenSize+i])
	}

	return int((int64(sum) + int64(net.OutputBias)) * Scale / (QA * QB))
}
