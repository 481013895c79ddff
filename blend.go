package bdisp

// BlendRule is a Porter-Duff rule. The engine can only express the rules
// below; every other blend pair is RuleUnsupported.
type BlendRule uint8

const (
	RuleUnsupported BlendRule = iota
	RuleClear
	RuleSrc
	RuleDst
	RuleSrcOver
	RuleDstOver
	RuleDstIn
	RuleDstOut
	// RuleNone is straight alpha blending: SRCALPHA, INVSRCALPHA.
	RuleNone
)

var ruleNames = [...]string{
	RuleUnsupported: "UNSUPPORTED",
	RuleClear:       "CLEAR",
	RuleSrc:         "SRC",
	RuleDst:         "DST",
	RuleSrcOver:     "SRC_OVER",
	RuleDstOver:     "DST_OVER",
	RuleDstIn:       "DST_IN",
	RuleDstOut:      "DST_OUT",
	RuleNone:        "NONE",
}

func (r BlendRule) String() string {
	if int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return "INVALID"
}

// ClassifyBlend maps a (source, destination) blend function pair to its
// Porter-Duff rule by exact match.
func ClassifyBlend(src, dst BlendFunc) BlendRule {
	switch src {
	case BlendZero:
		switch dst {
		case BlendZero:
			return RuleClear
		case BlendSrcAlpha:
			return RuleDstIn
		case BlendInvSrcAlpha:
			return RuleDstOut
		case BlendOne:
			return RuleDst
		}
	case BlendOne:
		switch dst {
		case BlendZero:
			return RuleSrc
		case BlendInvSrcAlpha:
			return RuleSrcOver
		}
	case BlendInvDestAlpha:
		if dst == BlendOne {
			return RuleDstOver
		}
	case BlendSrcAlpha:
		if dst == BlendInvSrcAlpha {
			return RuleNone
		}
	}
	return RuleUnsupported
}

// Passes returns the number of engine passes the rule needs.
func (r BlendRule) Passes() int {
	if r == RuleDstIn || r == RuleDstOut {
		return 2
	}
	return 1
}

// BlendPair returns a blend function pair that classifies as r.
func (r BlendRule) BlendPair() (src, dst BlendFunc) {
	switch r {
	case RuleClear:
		return BlendZero, BlendZero
	case RuleSrc:
		return BlendOne, BlendZero
	case RuleDst:
		return BlendZero, BlendOne
	case RuleSrcOver:
		return BlendOne, BlendInvSrcAlpha
	case RuleDstOver:
		return BlendInvDestAlpha, BlendOne
	case RuleDstIn:
		return BlendZero, BlendSrcAlpha
	case RuleDstOut:
		return BlendZero, BlendInvSrcAlpha
	case RuleNone:
		return BlendSrcAlpha, BlendInvSrcAlpha
	}
	return BlendUnknown, BlendUnknown
}
