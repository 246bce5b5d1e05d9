package provider

import (
	"net/url"
	"strconv"
)

const vastBaseURL = "https://pubads.g.doubleclick.net/gampad/ads"

// BuildVASTTagURL builds the ad tag URL for an audio pre-roll request.
// The correlator should be unique per request; callers pass the current
// time in milliseconds. Custom targeting parameters are encoded into the
// cust_params value as key=value pairs.
func BuildVASTTagURL(adUnit string, correlator int64, customParams map[string]string) string {
	q := url.Values{}
	q.Set("iu", adUnit)
	q.Set("sz", "audio")
	q.Set("gdfp_req", "1")
	q.Set("output", "vast")
	q.Set("unviewed_position_start", "1")
	q.Set("env", "vp")
	q.Set("impl", "s")
	q.Set("correlator", strconv.FormatInt(correlator, 10))

	if len(customParams) > 0 {
		inner := url.Values{}
		for k, v := range customParams {
			inner.Set(k, v)
		}
		q.Set("cust_params", inner.Encode())
	}

	return vastBaseURL + "?" + q.Encode()
}
