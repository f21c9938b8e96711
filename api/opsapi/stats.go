package opsapi

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/guardops/watchpost/internal/export"
	"github.com/guardops/watchpost/internal/workday"
	"github.com/guardops/watchpost/storage/model"
)

const mimeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// statsForQuery resolves the month and holiday query parameters into the
// filtered workday list.
func statsForQuery(c *fiber.Ctx, base []string) (month string, dates, holidays []string, err error) {
	month = c.Query("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	year, m, err := workday.ParseMonth(month)
	if err != nil {
		return "", nil, nil, model.ValidationErrorFmt("invalid month: %s", month)
	}
	var extra []string
	if raw := c.Query("holidays"); raw != "" {
		for _, h := range strings.Split(raw, ",") {
			if h = strings.TrimSpace(h); h != "" {
				extra = append(extra, h)
			}
		}
	}
	holidays = workday.HolidaySet(base, extra)
	dates = workday.Workdays(year, m, holidays)
	return month, dates, holidays, nil
}

// registerStats wires the upload-compliance statistics endpoints. Compliance
// for (building, date) is simply the existence of that gallery folder.
func registerStats(r fiber.Router, cfg Config, gallery model.GalleryStore) {
	r.Get("/stats-data", func(c *fiber.Ctx) error {
		month, dates, holidays, err := statsForQuery(c, cfg.BaseHolidays)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		uploadMap := make(map[string]bool, len(cfg.Buildings)*len(dates))
		buildingStats := make(map[string]int, len(cfg.Buildings))
		for _, b := range cfg.Buildings {
			count := 0
			for _, d := range dates {
				exists := gallery.HasFolder(b, d)
				uploadMap[b+"-"+d] = exists
				if exists {
					count++
				}
			}
			buildingStats[b] = count
		}

		yearStr, monthStr, _ := strings.Cut(month, "-")
		return c.JSON(fiber.Map{
			"year":          yearStr,
			"month":         monthStr,
			"dates":         dates,
			"buildings":     cfg.Buildings,
			"holidays":      holidays,
			"buildingStats": buildingStats,
			"uploadMap":     uploadMap,
		})
	})

	r.Get("/stats/download", func(c *fiber.Ctx) error {
		month, dates, holidays, err := statsForQuery(c, cfg.BaseHolidays)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		f, err := export.StatsWorkbook(export.StatsInput{
			Month:     month,
			Workdays:  dates,
			Buildings: cfg.Buildings,
			Uploaded:  gallery.HasFolder,
			Holidays:  holidays,
		})
		if err != nil {
			log.WithError(err).WithField("month", month).Error("stats workbook failed")
			return c.Status(fiber.StatusInternalServerError).SendString("excel generation failed")
		}
		defer f.Close()

		c.Set(fiber.HeaderContentType, mimeXlsx)
		c.Set(
			fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(export.StatsFilename(month))),
		)
		return f.Write(c.Response().BodyWriter())
	})
}
