package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const defaultVoiceDuration = 3

type keywordSet struct {
	code     int
	prefix   string
	keywords []string
}

// Checked in order; the first set with a hit decides the scent.
var voiceKeywords = []keywordSet{
	{code: ScentClear, prefix: "맑음", keywords: []string{"맑", "상쾌", "시트러스", "레몬", "오렌지", "citrus", "fresh", "lemon"}},
	{code: ScentCloudy, prefix: "흐림", keywords: []string{"흐림", "구름", "차분", "라벤더", "릴렉스", "편안", "lavender", "relax", "calm"}},
	{code: ScentRain, prefix: "비", keywords: []string{"비", "강수", "레인", "우울", "진정", "바다", "아쿠아", "rain", "ocean", "gloomy"}},
	{code: ScentSnow, prefix: "눈", keywords: []string{"눈", "스노우", "겨울", "민트", "쿨", "시원", "snow", "mint", "cool"}},
}

var stopKeywords = []string{"정지", "스톱", "멈춰", "꺼", "중지", "stop"}

// AllowedVoiceDurations are the spoken durations honoured, in match priority order.
var AllowedVoiceDurations = []int{1, 2, 3, 5, 10, 15}

// A whole number immediately followed by a seconds unit: "10초", "5sec", "3seconds".
// The whole number is read, so "15초" is 15 and "115초" is not an allowed value.
var secondsRe = regexp.MustCompile(`(?i)([0-9]+)(?:초|seconds|second|secs|sec|s\b)`)

// ClassifyVoice maps a transcript to a scent by keyword and reads an optional
// spoken duration. An empty transcript takes the default branch.
func ClassifyVoice(transcript string) Outcome {
	t := strings.ToLower(strings.TrimSpace(transcript))

	out := Outcome{
		ScentCode: ScentNone,
		Label:     fmt.Sprintf("VOICE: %s", transcript),
		Mode:      ModeVoice,
		Duration:  defaultVoiceDuration,
	}

	matched := false
	for _, set := range voiceKeywords {
		if containsAny(t, set.keywords) {
			out.ScentCode = set.code
			out.Label = fmt.Sprintf("%s(키워드): %s", set.prefix, transcript)
			matched = true
			break
		}
	}
	if !matched && containsAny(t, stopKeywords) {
		out.ScentCode = ScentNone
		out.Duration = 0
		out.Label = fmt.Sprintf("정지(키워드): %s", transcript)
	}

	if d, ok := spokenDuration(t); ok {
		out.Duration = d
	}
	return out
}

func spokenDuration(t string) (int, bool) {
	spoken := make(map[int]bool)
	for _, m := range secondsRe.FindAllStringSubmatch(t, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil {
			spoken[n] = true
		}
	}
	for _, d := range AllowedVoiceDurations {
		if spoken[d] {
			return d, true
		}
	}
	return 0, false
}
