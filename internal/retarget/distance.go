package retarget

// Distance copies rotation deltas like AutoSkin but scales translation
// deltas by the ratio of corresponding bone-segment lengths, correcting
// for proportion mismatches between the two bodies.
type Distance struct{}

func (Distance) Solve(in Input) (PoseFrame, error) {
	if err := in.validate(); err != nil {
		return PoseFrame{}, err
	}

	out := BindPose(in.Target)
	for ti := range out.Transforms {
		si := firstSourceFor(in, ti)
		if si < 0 {
			continue
		}
		srcBind := in.Source.Bones[si].Bind
		srcFrame := in.SourceFrame.Transforms[si]

		t := &out.Transforms[ti]
		t.Rotation = rotationDelta(srcFrame, srcBind).Mul(t.Rotation).Normalize()
		t.Translation = t.Translation.Add(
			translationDelta(srcFrame, srcBind).Mul(segmentRatio(in, si, ti)))
	}
	return out, nil
}

// segmentRatio is target/source segment length, clamped to 1 when the
// source segment is degenerate.
func segmentRatio(in Input, si, ti int) float64 {
	srcLen := segmentLength(in.Source, si)
	if srcLen < 1e-9 {
		return 1
	}
	return segmentLength(in.Target, ti) / srcLen
}
