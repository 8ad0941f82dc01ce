package resolve

// Canonical bone concepts. A concept names the anatomical bone, not any
// particular convention's spelling of it.
const (
	ConceptHips       = "hips"
	ConceptSpine      = "spine"
	ConceptChest      = "chest"
	ConceptUpperChest = "upper_chest"
	ConceptNeck       = "neck"
	ConceptHead       = "head"
	ConceptEyeL       = "eye_l"
	ConceptEyeR       = "eye_r"
	ConceptShoulderL  = "shoulder_l"
	ConceptShoulderR  = "shoulder_r"
	ConceptUpperArmL  = "upper_arm_l"
	ConceptUpperArmR  = "upper_arm_r"
	ConceptForeArmL   = "forearm_l"
	ConceptForeArmR   = "forearm_r"
	ConceptHandL      = "hand_l"
	ConceptHandR      = "hand_r"
	ConceptUpperLegL  = "upper_leg_l"
	ConceptUpperLegR  = "upper_leg_r"
	ConceptLowerLegL  = "lower_leg_l"
	ConceptLowerLegR  = "lower_leg_r"
	ConceptFootL      = "foot_l"
	ConceptFootR      = "foot_r"
	ConceptToeL       = "toe_l"
	ConceptToeR       = "toe_r"
)

// variationTable enumerates known alias spellings per canonical concept,
// already normalized (lower case, separators stripped, side suffixes
// rewritten to left/right prefixes by normalizeName).
//
// Covers the Mixamo, Unreal mannequin, VRM humanoid, MMD-english and
// generic DCC spellings seen in the wild.
var variationTable = map[string][]string{
	ConceptHips:       {"hips", "hip", "pelvis", "lowerbody", "root hips", "cog"},
	ConceptSpine:      {"spine", "spine01", "spine1", "upperbody", "torso", "waist"},
	ConceptChest:      {"chest", "spine02", "spine2", "upperbody2", "upperchest chest"},
	ConceptUpperChest: {"upperchest", "spine03", "spine3", "upperbody3"},
	ConceptNeck:       {"neck", "neck01", "neck1"},
	ConceptHead:       {"head"},
	ConceptEyeL:       {"left eye", "left eyeball"},
	ConceptEyeR:       {"right eye", "right eyeball"},
	ConceptShoulderL:  {"left shoulder", "left clavicle", "left collar", "left collarbone"},
	ConceptShoulderR:  {"right shoulder", "right clavicle", "right collar", "right collarbone"},
	ConceptUpperArmL:  {"left arm", "left upperarm", "left upper arm", "left bicep", "left humerus"},
	ConceptUpperArmR:  {"right arm", "right upperarm", "right upper arm", "right bicep", "right humerus"},
	ConceptForeArmL:   {"left forearm", "left fore arm", "left lowerarm", "left lower arm", "left elbow"},
	ConceptForeArmR:   {"right forearm", "right fore arm", "right lowerarm", "right lower arm", "right elbow"},
	ConceptHandL:      {"left hand", "left wrist"},
	ConceptHandR:      {"right hand", "right wrist"},
	ConceptUpperLegL:  {"left upleg", "left upperleg", "left upper leg", "left thigh", "left leg hip"},
	ConceptUpperLegR:  {"right upleg", "right upperleg", "right upper leg", "right thigh", "right leg hip"},
	ConceptLowerLegL:  {"left leg", "left lowerleg", "left lower leg", "left knee", "left calf", "left shin"},
	ConceptLowerLegR:  {"right leg", "right lowerleg", "right lower leg", "right knee", "right calf", "right shin"},
	ConceptFootL:      {"left foot", "left ankle"},
	ConceptFootR:      {"right foot", "right ankle"},
	ConceptToeL:       {"left toe", "left toes", "left toebase", "left toe base", "left ball"},
	ConceptToeR:       {"right toe", "right toes", "right toebase", "right toe base", "right ball"},
}

// fingerConcepts extends the table with the 15 per-hand finger joints of
// each side. Built at init instead of spelled out by hand.
func init() {
	fingers := []struct {
		concept string
		aliases []string
	}{
		{"thumb", []string{"thumb"}},
		{"index", []string{"index", "indexfinger", "fore finger"}},
		{"middle", []string{"middle", "middlefinger"}},
		{"ring", []string{"ring", "ringfinger", "third finger"}},
		{"pinky", []string{"pinky", "little", "littlefinger", "baby finger"}},
	}
	joints := []struct {
		suffix  string
		aliases []string
	}{
		{"1", []string{"1", "01", "proximal", "metacarpal"}},
		{"2", []string{"2", "02", "intermediate", "proximal phalange"}},
		{"3", []string{"3", "03", "distal", "tip"}},
	}
	for _, side := range []string{"left", "right"} {
		suffix := "_l"
		if side == "right" {
			suffix = "_r"
		}
		for _, f := range fingers {
			for _, j := range joints {
				concept := f.concept + j.suffix + suffix
				var aliases []string
				for _, fa := range f.aliases {
					for _, ja := range j.aliases {
						aliases = append(aliases, side+" "+fa+" "+ja)
						// Mixamo spells fingers through the hand: LeftHandIndex1
						aliases = append(aliases, side+" hand "+fa+" "+ja)
					}
				}
				variationTable[concept] = aliases
			}
		}
	}
}
