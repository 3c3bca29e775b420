package chat

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AEDToINR is the fixed conversion factor applied to every AED amount the
// model mentions.
const AEDToINR = 20

var aedAmount = regexp.MustCompile(`AED\s*([\d,]+)`)

var stripChars = strings.NewReplacer(`"`, "", "*", "")

// PostProcess rewrites every "AED <number>" in a model reply to the INR
// equivalent (two decimal places), then strips literal quote and asterisk
// characters. Deterministic, so the same reply always renders the same.
func PostProcess(reply string) string {
	converted := aedAmount.ReplaceAllStringFunc(reply, func(match string) string {
		groups := aedAmount.FindStringSubmatch(match)

		raw := strings.ReplaceAll(groups[1], ",", "")

		amount, err := strconv.ParseFloat(raw, 64)

		if err != nil {
			// a run of commas with no digits; leave the mention alone
			return match
		}

		return fmt.Sprintf("INR %.2f", amount*AEDToINR)
	})

	return stripChars.Replace(converted)
}
