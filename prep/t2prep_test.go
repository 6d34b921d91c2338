package prep_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/openmrlab/seqgen/prep"
	"github.com/openmrlab/seqgen/pulseq"
)

var _ = Describe("AddCompositeRefocusing", func() {
	var sys pulseq.Opts

	BeforeEach(func() {
		sys = pulseq.Default()
	})

	It("requires an RF dead time", func() {
		noDeadTime := sys.WithRFDeadTime(pulseq.Unset)
		seq := pulseq.NewSequence(noDeadTime)

		_, _, _, err := prep.AddCompositeRefocusing(seq, noDeadTime, 2e-3, false)

		Expect(err).To(MatchError(prep.ErrConfiguration))
		Expect(err.Error()).To(ContainSubstring("rf_dead_time must be provided"))
		Expect(seq.NumBlocks()).To(BeZero(), "no mutation before the failure")
	})

	DescribeTable("block duration is 2*duration180 + 3*deadTime",
		func(duration180, rfDeadTime float64) {
			withDeadTime := sys.WithRFDeadTime(rfDeadTime)
			seq := pulseq.NewSequence(withDeadTime)

			seq, totalDur, _, err := prep.AddCompositeRefocusing(seq, withDeadTime, duration180, false)
			Expect(err).ToNot(HaveOccurred())

			Expect(totalDur).To(Equal(seq.Duration()))
			Expect(totalDur).To(BeNumerically("~", 2*duration180+3*rfDeadTime, 1e-9))
		},
		Entry("2 ms, 100 us", 2e-3, 100e-6),
		Entry("2 ms, 200 us", 2e-3, 200e-6),
		Entry("4 ms, 100 us", 4e-3, 100e-6),
		Entry("6 ms, 200 us", 6e-3, 200e-6),
	)

	DescribeTable("block duration does not depend on the ringdown time",
		func(rfRingdownTime float64) {
			modified := sys.WithRFRingdownTime(rfRingdownTime)
			seq := pulseq.NewSequence(sys)

			_, dur1, _, err := prep.AddCompositeRefocusing(seq, sys, 2e-3, false)
			Expect(err).ToNot(HaveOccurred())

			_, dur2, _, err := prep.AddCompositeRefocusing(seq, modified, 2e-3, false)
			Expect(err).ToNot(HaveOccurred())

			Expect(dur1).To(Equal(dur2))
		},
		Entry("no ringdown", 0.0),
		Entry("30 us", 30e-6),
		Entry("100 us", 100e-6),
		Entry("a full second", 1.0),
	)

	It("does not corrupt the caller's hardware limits", func() {
		seq := pulseq.NewSequence(sys)

		_, _, _, err := prep.AddCompositeRefocusing(seq, sys, 2e-3, false)
		Expect(err).ToNot(HaveOccurred())

		Expect(sys.RFRingdownTime).To(Equal(30e-6), "ringdown override stays private")
	})

	It("reports the time to the 180° midpoint", func() {
		seq := pulseq.NewSequence(sys)

		_, _, timeToMidpoint, err := prep.AddCompositeRefocusing(seq, sys, 2e-3, false)
		Expect(err).ToNot(HaveOccurred())

		// dead + 90° + dead + half of the 180°.
		Expect(timeToMidpoint).To(BeNumerically("~", 2*sys.RFDeadTime+2e-3, 1e-12))
	})
})

var _ = Describe("AddT2Prep", func() {
	var sys pulseq.Opts

	BeforeEach(func() {
		sys = pulseq.Default()
	})

	It("requires an RF dead time", func() {
		noDeadTime := sys.WithRFDeadTime(pulseq.Unset)

		_, _, err := prep.AddT2Prep(nil, &noDeadTime, prep.DefaultT2PrepParams())

		Expect(err).To(MatchError(prep.ErrConfiguration))
		Expect(err.Error()).To(ContainSubstring("rf_dead_time must be provided"))
	})

	DescribeTable("fails when the echo time is too short",
		func(echoTime, duration180 float64) {
			p := prep.DefaultT2PrepParams()
			p.EchoTime = echoTime
			p.Duration180 = duration180

			seq := pulseq.NewSequence(sys)
			_, _, err := prep.AddT2Prep(seq, &sys, p)

			Expect(err).To(MatchError(prep.ErrInfeasibleTiming))
			Expect(err.Error()).To(ContainSubstring("Desired echo time"))
		},
		Entry("10 ms TE, 1 ms pulse", 0.01, 1e-3),
		Entry("10 ms TE, 2 ms pulse", 0.01, 2e-3),
		Entry("40 ms TE, 4 ms pulse", 0.04, 4e-3),
	)

	It("uses the default system limits when none are provided", func() {
		_, durationWithSystem, err := prep.AddT2Prep(nil, &sys, prep.DefaultT2PrepParams())
		Expect(err).ToNot(HaveOccurred())

		_, durationWithNil, err := prep.AddT2Prep(nil, nil, prep.DefaultT2PrepParams())
		Expect(err).ToNot(HaveOccurred())

		Expect(durationWithNil).To(Equal(durationWithSystem))
	})

	DescribeTable("block duration matches the closed-form sum",
		func(echoTime, duration180 float64, addSpoiler bool, spoilerRampTime, spoilerFlatTime float64) {
			p := prep.T2PrepParams{
				EchoTime:        echoTime,
				Duration180:     duration180,
				AddSpoiler:      addSpoiler,
				SpoilerRampTime: spoilerRampTime,
				SpoilerFlatTime: spoilerFlatTime,
			}

			seq := pulseq.NewSequence(sys)
			seq, blockDuration, err := prep.AddT2Prep(seq, &sys, p)
			Expect(err).ToNot(HaveOccurred())

			manual := sys.RFDeadTime + // dead time before the 90° excitation
				duration180/4 + // half duration of the 90° excitation
				echoTime +
				duration180/2*3/2 + // half duration of the 270° tip-up
				sys.RFDeadTime + // dead time before the -360° pulse
				duration180*2 // duration of the -360° pulse
			if addSpoiler {
				manual += 2*spoilerRampTime + spoilerFlatTime
			}

			Expect(seq.Duration()).To(Equal(blockDuration))
			Expect(blockDuration).To(BeNumerically("~", manual, 1e-9))
		},
		Entry("defaults", 0.1, 1e-3, true, 6e-4, 6e-3),
		Entry("longer TE", 0.2, 1e-3, true, 6e-4, 6e-3),
		Entry("longer pulses", 0.1, 4e-3, true, 6e-4, 6e-3),
		Entry("no spoiler", 0.1, 1e-3, false, 6e-4, 6e-3),
		Entry("longer spoiler", 0.1, 1e-3, true, 1e-3, 10e-3),
	)

	It("builds the 7-pulse MLEV-4 train with its delays", func() {
		seq := pulseq.NewSequence(sys)
		seq, _, err := prep.AddT2Prep(seq, &sys, prep.DefaultT2PrepParams())
		Expect(err).ToNot(HaveOccurred())

		var rfBlocks, delayBlocks, gradBlocks int
		for _, b := range seq.Blocks() {
			switch {
			case b.RF != nil:
				rfBlocks++
			case b.Delay != nil:
				delayBlocks++
			case b.Gz != nil:
				gradBlocks++
			}
		}

		// 90° + 4 composite triplets + 270° + (-360°).
		Expect(rfBlocks).To(Equal(15))
		Expect(delayBlocks).To(Equal(5), "tau1, three tau2, tau3")
		Expect(gradBlocks).To(Equal(1), "spoiler")
	})
})
