package bas

// GroupDef describes one report group for UI/catalog purposes.
type GroupDef struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// LabelSV is the Swedish statutory caption.
	LabelSV string `json:"label_sv"`
}

var sectionDefs = map[Section]GroupDef{
	SectionFixedAssets:          {Key: "fixed_assets", Label: "Fixed assets", LabelSV: "Anläggningstillgångar"},
	SectionCurrentAssets:        {Key: "current_assets", Label: "Current assets", LabelSV: "Omsättningstillgångar"},
	SectionEquity:               {Key: "equity", Label: "Equity", LabelSV: "Eget kapital"},
	SectionUntaxedReserves:      {Key: "untaxed_reserves", Label: "Untaxed reserves", LabelSV: "Obeskattade reserver"},
	SectionProvisions:           {Key: "provisions", Label: "Provisions", LabelSV: "Avsättningar"},
	SectionLongTermLiabilities:  {Key: "long_term_liabilities", Label: "Long-term liabilities", LabelSV: "Långfristiga skulder"},
	SectionShortTermLiabilities: {Key: "short_term_liabilities", Label: "Short-term liabilities", LabelSV: "Kortfristiga skulder"},
	SectionOperatingRevenue:     {Key: "operating_revenue", Label: "Operating revenue", LabelSV: "Rörelsens intäkter"},
	SectionOperatingExpenses:    {Key: "operating_expenses", Label: "Operating expenses", LabelSV: "Rörelsens kostnader"},
	SectionFinancialItems:       {Key: "financial_items", Label: "Financial items", LabelSV: "Finansiella poster"},
	SectionAppropriations:       {Key: "appropriations", Label: "Appropriations", LabelSV: "Bokslutsdispositioner"},
	SectionTaxes:                {Key: "taxes", Label: "Taxes", LabelSV: "Skatter"},
}

var subsectionDefs = map[Subsection]GroupDef{
	SubIntangible:           {Key: "intangible", Label: "Intangible assets", LabelSV: "Immateriella anläggningstillgångar"},
	SubTangible:             {Key: "tangible", Label: "Tangible assets", LabelSV: "Materiella anläggningstillgångar"},
	SubFinancialAssets:      {Key: "financial", Label: "Financial assets", LabelSV: "Finansiella anläggningstillgångar"},
	SubInventory:            {Key: "inventory", Label: "Inventory", LabelSV: "Varulager"},
	SubReceivables:          {Key: "receivables", Label: "Receivables", LabelSV: "Fordringar"},
	SubShortTermInvestments: {Key: "short_term_investments", Label: "Short-term investments", LabelSV: "Kortfristiga placeringar"},
	SubCash:                 {Key: "cash", Label: "Cash and bank", LabelSV: "Kassa och bank"},
	SubOtherEquity:          {Key: "other_equity", Label: "Other equity", LabelSV: "Övrigt eget kapital"},
	SubRestrictedEquity:     {Key: "restricted_equity", Label: "Restricted equity", LabelSV: "Bundet eget kapital"},
	SubNonRestrictedEquity:  {Key: "non_restricted_equity", Label: "Non-restricted equity", LabelSV: "Fritt eget kapital"},
	SubUntaxedReserves:      {Key: "untaxed_reserves", Label: "Untaxed reserves", LabelSV: "Obeskattade reserver"},
	SubProvisions:           {Key: "provisions", Label: "Provisions", LabelSV: "Avsättningar"},
	SubLongTermLiabilities:  {Key: "long_term_liabilities", Label: "Long-term liabilities", LabelSV: "Långfristiga skulder"},
	SubShortTermLiabilities: {Key: "short_term_liabilities", Label: "Short-term liabilities", LabelSV: "Kortfristiga skulder"},

	SubNetSales:               {Key: "net_sales", Label: "Net sales", LabelSV: "Nettoomsättning"},
	SubOtherOperatingIncome:   {Key: "other_operating_income", Label: "Other operating income", LabelSV: "Övriga rörelseintäkter"},
	SubGoods:                  {Key: "goods", Label: "Goods and materials", LabelSV: "Råvaror och handelsvaror"},
	SubExternalExpenses:       {Key: "external_expenses", Label: "Other external expenses", LabelSV: "Övriga externa kostnader"},
	SubPersonnel:              {Key: "personnel", Label: "Personnel costs", LabelSV: "Personalkostnader"},
	SubDepreciation:           {Key: "depreciation", Label: "Depreciation and amortisation", LabelSV: "Avskrivningar"},
	SubOtherOperatingExpenses: {Key: "other_operating_expenses", Label: "Other operating expenses", LabelSV: "Övriga rörelsekostnader"},
	SubFinancialIncome:        {Key: "financial_income", Label: "Financial income", LabelSV: "Finansiella intäkter"},
	SubFinancialExpenses:      {Key: "financial_expenses", Label: "Financial expenses", LabelSV: "Finansiella kostnader"},
	SubAppropriations:         {Key: "appropriations", Label: "Appropriations", LabelSV: "Bokslutsdispositioner"},
	SubIncomeTax:              {Key: "income_tax", Label: "Income tax", LabelSV: "Skatt på årets resultat"},
}

// SectionDef returns the display definition for a section.
func SectionDef(s Section) GroupDef {
	if d, ok := sectionDefs[s]; ok {
		return d
	}
	return GroupDef{Key: string(s), Label: string(s), LabelSV: string(s)}
}

// SubsectionDef returns the display definition for a subsection.
func SubsectionDef(s Subsection) GroupDef {
	if d, ok := subsectionDefs[s]; ok {
		return d
	}
	return GroupDef{Key: string(s), Label: string(s), LabelSV: string(s)}
}

// SectionGroup pairs a section with its subsections for the chart catalog.
type SectionGroup struct {
	Section     GroupDef   `json:"section"`
	Statement   Statement  `json:"statement"`
	Subsections []GroupDef `json:"subsections"`
}

// Groups lists every section with its subsections in statutory order.
func Groups() []SectionGroup {
	out := make([]SectionGroup, 0, len(sectionDefs))
	for _, r := range ranges {
		sec := SectionDef(r.section)
		if len(out) == 0 || out[len(out)-1].Section.Key != sec.Key {
			out = append(out, SectionGroup{Section: sec, Statement: r.statement})
		}
		last := len(out) - 1
		sub := SubsectionDef(r.subsection)
		dup := false
		for _, s := range out[last].Subsections {
			if s.Key == sub.Key {
				dup = true
				break
			}
		}
		if !dup {
			out[last].Subsections = append(out[last].Subsections, sub)
		}
	}
	return out
}

// DefaultAccount is one row of the seed chart used for dev environments.
type DefaultAccount struct {
	Number string
	Name   string
}

// DefaultChart is a minimal BAS chart covering the common posting targets.
var DefaultChart = []DefaultAccount{
	{"1220", "Inventarier och verktyg"},
	{"1510", "Kundfordringar"},
	{"1930", "Företagskonto"},
	{"2081", "Aktiekapital"},
	{"2099", "Årets resultat"},
	{"2350", "Banklån"},
	{"2440", "Leverantörsskulder"},
	{"2610", "Utgående moms 25%"},
	{"2640", "Ingående moms"},
	{"3010", "Försäljning"},
	{"4010", "Inköp varor"},
	{"5010", "Lokalhyra"},
	{"7010", "Löner"},
	{"7832", "Avskrivningar inventarier"},
	{"8310", "Ränteintäkter"},
	{"8410", "Räntekostnader"},
	{"8999", "Årets resultat"},
}
