package config

import (
	"github.com/pkg/errors"

	"github.com/guardops/watchpost/internal/workday"
)

// buildingsConf carries the managed-building tables. The defaults mirror the
// portfolio this system was rolled out for; deployments override them in the
// config file.
type buildingsConf struct {
	// Codes maps a building's display name to the short code used in event
	// display ids. Unknown buildings fall back to a generic code.
	Codes map[string]string `yaml:"codes"`
	// StatsRoster lists the buildings the statistics pages report on, in
	// display order.
	StatsRoster []string `yaml:"stats_roster"`
	// Holidays are always excluded from workday counts. ISO dates
	// (2025-10-06) and Republic-of-China dates (114/10/10) are accepted.
	Holidays []string `yaml:"holidays"`
}

var defaultBuildingsConf = buildingsConf{
	Codes: map[string]string{
		"松山金融":  "L391",
		"前瞻金融":  "L336",
		"全球民權":  "N364",
		"產物大樓":  "L217",
		"芷英大樓":  "N307",
		"華航大樓":  "N236",
		"南京科技":  "L169",
		"互助營造":  "N113",
		"摩天大樓":  "L126",
		"新莊農會":  "N274",
		"儒鴻企業":  "N393",
		"新板傑仕堡": "L384",
		"新板金融":  "L371",
		"桃園金融":  "L137",
		"新竹大樓":  "L215",
		"竹科大樓":  "L390",
		"亞太經貿":  "L289",
		"新光醫院":  "R125",
		"台中惠國":  "L243",
		"台南大樓":  "L186",
		"頭份大樓":  "L367",
	},
	StatsRoster: []string{
		"松山金融", "前瞻金融", "全球民權", "產物大樓",
		"芷英大樓", "華航大樓", "南京科技", "互助營造",
		"摩天大樓", "新莊農會", "儒鴻企業", "新板傑仕堡",
		"新板金融", "桃園金融", "新竹大樓", "竹科大樓", "頭份大樓",
	},
	Holidays: []string{"2025-10-06", "114/10/10"},
}

func (c *buildingsConf) validate() error {
	if len(c.StatsRoster) == 0 {
		return errors.New("error in buildings conf: stats_roster must not be empty")
	}
	for _, h := range c.Holidays {
		if _, ok := workday.NormalizeHoliday(h); !ok {
			return errors.Errorf("error in buildings conf: unparsable holiday '%s'", h)
		}
	}
	return nil
}
