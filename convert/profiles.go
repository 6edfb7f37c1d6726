package convert

// Built-in profile set: one profile per supported retailer dialect.
// Geometry is in PDF points, top-left origin, matching the measured layouts
// of the known order forms. Adding a retailer means adding one Profile here
// (or in the YAML override), not touching any extraction code.

// BuiltinProfiles returns the compiled-in document profiles.
func BuiltinProfiles() []Profile {
	return []Profile{
		{
			Tag:            VariantEdeka,
			Default:        true,
			BBoxPage1:      BBox{X0: 8.50, Top: 314.63, X1: 737.00, Bottom: 524.30},
			BBoxOtherPages: BBox{X0: 8.50, Top: 99.21, X1: 722.82, Bottom: 538.57},
			ColumnBounds:   []float64{11.34, 99.21, 192.75, 272.12, 334.58, 411.02, 623.61, 722.82},
			Header: HeaderPatterns{
				OrderDate:      `Bestelldatum:\s*(\d{2}\.\d{2}\.\d{4})`,
				DeliveryDate:   `Lieferdatum/-uhrzeit:\s*(\d{2}\.\d{2}\.\d{4})`,
				OrderNumber:    `Bestellnummer:\s*(\d+)`,
				OrderNumberAlt: `Bestell-Nr\.:\s*([A-Za-z0-9 /]+)`,
				Address:        `LIEFERANSCHRIFT\s*([\s\S]*?)(?:\n(?:GLN:|Empf\.:|Ihr Ansprechpartner/in|RECHNUNGSEMPFÄNGER)|\z)`,
			},
			ArticleColumn:   0,
			QuantityColumn:  1,
			RequirePassword: true,
			DelimiterRow:    true,
		},
		{
			Tag:            VariantDohle,
			FilenameTokens: []string{"DOHLEHIT", "AEZ"},
			// Converted from mm; single-page layout, same box on every page.
			BBoxPage1:    BBox{X0: 28.35, Top: 342.98, X1: 566.93, Bottom: 810.20},
			ColumnBounds: []float64{28.35, 60.94, 216.74, 256.44, 279.11, 328.62, 390.87, 432.34, 462.98, 493.63, 527.29, 566.93},
			Header: HeaderPatterns{
				OrderDate:    `Datum:\s*(\d{2}\.\d{2}\.\d{4})`,
				DeliveryDate: `Liefertermin:\s*(\d{2}\.\d{2}\.\d{4})`,
				OrderNumber:  `Bestellung Nr\.?\s*(\d+)`,
				Address:      `AEZ Haus \d+\s*([A-Za-zäöüÄÖÜß \-]+)`,
			},
			ArticleColumn:  4,
			QuantityColumn: 7,
		},
		{
			Tag:            VariantHammerer,
			FilenameTokens: []string{"HAMMERER"},
			BBoxPage1:      BBox{X0: 14.17, Top: 226.77, X1: 580.89, Bottom: 795.40},
			ColumnBounds:   []float64{14.17, 70.87, 226.77, 311.81, 382.68, 453.54, 580.89},
			Header: HeaderPatterns{
				OrderDate:    `Bestelldatum:\s*(\d{2}\.\d{2}\.\d{4})`,
				DeliveryDate: `Liefertermin:\s*(\d{2}\.\d{2}\.\d{4})`,
				OrderNumber:  `Bestellnummer:\s*(\d+)`,
				Address:      `Lieferadresse\s*([\s\S]*?)(?:\n(?:Rechnungsadresse|GLN:)|\z)`,
			},
			ArticleColumn:   1,
			QuantityColumn:  3,
			NameByOrderDate: true,
		},
	}
}

// BuiltinMarkets returns the compiled-in keyword→password table.
// Keywords must be upper-case, umlauts already folded to digraphs
// (Normalize form). Order matters: the first keyword found in the
// address block wins, so more specific fragments go first.
func BuiltinMarkets() []MarketKeyword {
	return []MarketKeyword{
		{Keyword: "SCHAEFERWIESE", Password: "Allee"},       // An der Schäferwiese
		{Keyword: "THERESIENHOEHE", Password: "Theresie"},   // Theresienhöhe
		{Keyword: "EINSTEINSTRASSE", Password: "Einstein"},  // Einsteinstraße
		{Keyword: "UNTERHACHING", Password: "Unterhaching"},
		{Keyword: "PULLACH", Password: "Pullach"},
		{Keyword: "ISARTAL", Password: "Isartal"},           // AEZ Haus 80 Isartal
		{Keyword: "MARTINSRIED", Password: "Martinsried"},   // AEZ Haus 60 Martinsried
	}
}
