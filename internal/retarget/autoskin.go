package retarget

// AutoSkin copies per-bone rotation and translation deltas straight
// across the correspondence table. Fastest strategy; assumes the two
// skeletons share comparable proportions.
type AutoSkin struct{}

func (AutoSkin) Solve(in Input) (PoseFrame, error) {
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
		t.Translation = t.Translation.Add(translationDelta(srcFrame, srcBind))
	}
	return out, nil
}
