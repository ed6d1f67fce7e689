package bas

import "strings"

// VATDirection separates VAT collected on sales from VAT paid on purchases.
type VATDirection string

const (
	// VATOutput is VAT charged to customers (a liability toward the tax
	// authority). Bucket amounts are credit - debit.
	VATOutput VATDirection = "output"
	// VATInput is VAT paid to suppliers (recoverable). Bucket amounts are
	// debit - credit.
	VATInput VATDirection = "input"
)

// VATBucket identifies one row of the VAT report.
type VATBucket struct {
	Key       string
	Direction VATDirection
	// Rate is the statutory percentage for output buckets, 0 for input
	// buckets and the catch-all.
	Rate  int
	Label string
}

var vatBuckets = map[string]VATBucket{
	"output_25":     {Key: "output_25", Direction: VATOutput, Rate: 25, Label: "Utgående moms 25%"},
	"output_12":     {Key: "output_12", Direction: VATOutput, Rate: 12, Label: "Utgående moms 12%"},
	"output_6":      {Key: "output_6", Direction: VATOutput, Rate: 6, Label: "Utgående moms 6%"},
	"output_other":  {Key: "output_other", Direction: VATOutput, Rate: 0, Label: "Utgående moms övrig"},
	"input_deduct":  {Key: "input_deduct", Direction: VATInput, Rate: 0, Label: "Ingående moms"},
	"input_reverse": {Key: "input_reverse", Direction: VATInput, Rate: 0, Label: "Ingående moms omvänd skattskyldighet"},
	"input_eu":      {Key: "input_eu", Direction: VATInput, Rate: 0, Label: "Ingående moms EU-förvärv"},
}

// VATBucketKeys lists bucket keys in report order.
var VATBucketKeys = []string{
	"output_25", "output_12", "output_6", "output_other",
	"input_deduct", "input_reverse", "input_eu",
}

// BucketByKey returns the bucket definition for a key.
func BucketByKey(key string) (VATBucket, bool) {
	b, ok := vatBuckets[key]
	return b, ok
}

// ClassifyVAT maps a 26xx VAT-control account number to its report bucket.
// It reports false for accounts outside the 26xx range.
func ClassifyVAT(number string) (VATBucket, bool) {
	if _, ok := parseNumber(number); !ok || !strings.HasPrefix(number, "26") {
		return VATBucket{}, false
	}
	switch {
	case number == "2610" || number == "2611" || number == "2612":
		return vatBuckets["output_25"], true
	case strings.HasPrefix(number, "262"):
		return vatBuckets["output_12"], true
	case strings.HasPrefix(number, "263"):
		return vatBuckets["output_6"], true
	case number == "2640" || number == "2641":
		return vatBuckets["input_deduct"], true
	case number == "2650":
		return vatBuckets["input_reverse"], true
	case number == "2660":
		return vatBuckets["input_eu"], true
	default:
		return vatBuckets["output_other"], true
	}
}
