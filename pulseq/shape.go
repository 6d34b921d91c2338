package pulseq

// compressedShape is a waveform in the run-length encoding of the file
// format: the sample derivative is stored, and a run of three or more
// equal derivative values collapses into value, value, extra-count.
type compressedShape struct {
	NumSamples int
	Data       []float64
}

// compressShape encodes samples. When the encoding would not be shorter
// than the raw samples, the samples are stored verbatim; readers detect
// that case by len(Data) == NumSamples.
func compressShape(samples []float64) compressedShape {
	if len(samples) == 0 {
		return compressedShape{}
	}

	deriv := make([]float64, len(samples))
	deriv[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		deriv[i] = samples[i] - samples[i-1]
	}

	var data []float64
	for i := 0; i < len(deriv); {
		j := i
		for j < len(deriv) && deriv[j] == deriv[i] {
			j++
		}

		// Two equal consecutive values always announce a run, so even a
		// run of two carries an explicit (zero) repeat count.
		run := j - i
		if run == 1 {
			data = append(data, deriv[i])
		} else {
			data = append(data, deriv[i], deriv[i], float64(run-2))
		}

		i = j
	}

	if len(data) >= len(samples) {
		data = append([]float64(nil), samples...)
	}

	return compressedShape{NumSamples: len(samples), Data: data}
}

// decompressShape restores the samples of a compressed shape.
func decompressShape(s compressedShape) []float64 {
	if len(s.Data) == s.NumSamples {
		return append([]float64(nil), s.Data...)
	}

	deriv := make([]float64, 0, s.NumSamples)
	for i := 0; i < len(s.Data); {
		v := s.Data[i]

		if i+1 < len(s.Data) && s.Data[i+1] == v {
			// Two equal values announce a run; the entry after them is
			// the number of additional repetitions.
			rep := 2
			if i+2 < len(s.Data) {
				rep += int(s.Data[i+2])
			}
			for k := 0; k < rep; k++ {
				deriv = append(deriv, v)
			}
			i += 3
			continue
		}

		deriv = append(deriv, v)
		i++
	}

	out := make([]float64, len(deriv))
	var acc float64
	for i, d := range deriv {
		acc += d
		out[i] = acc
	}

	return out
}
