package prep_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/openmrlab/seqgen/prep"
	"github.com/openmrlab/seqgen/pulseq"
)

var _ = Describe("AddT1Prep", func() {
	var sys pulseq.Opts

	BeforeEach(func() {
		sys = pulseq.Default()
	})

	It("uses the default system limits when none are provided", func() {
		_, durationWithSystem, err := prep.AddT1Prep(nil, &sys, prep.DefaultT1PrepParams())
		Expect(err).ToNot(HaveOccurred())

		_, durationWithNil, err := prep.AddT1Prep(nil, nil, prep.DefaultT1PrepParams())
		Expect(err).ToNot(HaveOccurred())

		Expect(durationWithNil).To(Equal(durationWithSystem))
	})

	DescribeTable("fails when the inversion time is too short",
		func(inversionTime, rfDuration float64) {
			p := prep.DefaultT1PrepParams()
			p.InversionTime = inversionTime
			p.RFDuration = rfDuration

			seq := pulseq.NewSequence(sys)
			_, _, err := prep.AddT1Prep(seq, &sys, p)

			Expect(err).To(MatchError(prep.ErrInfeasibleTiming))
			Expect(err.Error()).To(ContainSubstring("Inversion time too short"))
		},
		Entry("10 ms TI, 10 ms pulse", 0.01, 10e-3),
		Entry("15 ms TI, 20 ms pulse", 0.015, 20e-3),
	)

	DescribeTable("block duration equals dead time + half pulse + TI",
		func(inversionTime, rfDuration float64, addSpoiler bool, spoilerRampTime, spoilerFlatTime float64) {
			p := prep.T1PrepParams{
				InversionTime:   inversionTime,
				RFDuration:      rfDuration,
				AddSpoiler:      addSpoiler,
				SpoilerRampTime: spoilerRampTime,
				SpoilerFlatTime: spoilerFlatTime,
			}

			seq := pulseq.NewSequence(sys)
			seq, blockDuration, err := prep.AddT1Prep(seq, &sys, p)
			Expect(err).ToNot(HaveOccurred())

			manual := sys.RFDeadTime + // dead time before the inversion pulse
				rfDuration/2 + // half duration of the inversion pulse
				inversionTime

			Expect(seq.Duration()).To(Equal(blockDuration))
			Expect(blockDuration).To(BeNumerically("~", manual, 1e-9))
		},
		Entry("defaults", 21e-3, 10.24e-3, true, 6e-4, 8.4e-3),
		Entry("longer TI", 40e-3, 10.24e-3, true, 6e-4, 8.4e-3),
		Entry("longer pulse", 21e-3, 20.00e-3, true, 6e-4, 8.4e-3),
		Entry("no spoiler", 21e-3, 10.24e-3, false, 6e-4, 8.4e-3),
		Entry("longer spoiler", 21e-3, 10.24e-3, true, 1e-3, 10e-3),
	)

	It("elides a zero-length delay block instead of appending a no-op", func() {
		noRingdown := sys.WithRFRingdownTime(0)

		p := prep.DefaultT1PrepParams()
		p.AddSpoiler = false
		// TI chosen so tau is exactly zero.
		p.InversionTime = p.RFDuration / 2

		seq := pulseq.NewSequence(noRingdown)
		seq, _, err := prep.AddT1Prep(seq, &noRingdown, p)

		Expect(err).ToNot(HaveOccurred())
		Expect(seq.NumBlocks()).To(Equal(1), "only the inversion pulse block")
	})

	It("appends blocks to an existing sequence without touching prior ones", func() {
		seq := pulseq.NewSequence(sys)
		seq.AddBlock(pulseq.MakeDelay(1e-3))

		seq, blockDuration, err := prep.AddT1Prep(seq, &sys, prep.DefaultT1PrepParams())
		Expect(err).ToNot(HaveOccurred())
		Expect(seq.Duration()).To(BeNumerically("~", 1e-3+blockDuration, 1e-12))
	})
})
