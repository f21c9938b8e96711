package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nguyenthenguyen/docx"
	"github.com/pkg/errors"

	"github.com/guardops/watchpost/storage/model"
)

// occurTime arrives as free text from the reporting form; these are the
// shapes observed in practice.
var occurTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseOccurTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range occurTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// rocDate renders t as an unpadded Republic-of-China date, e.g. 114/10/6.
func rocDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Year()-1911, int(t.Month()), t.Day())
}

// amPMTime renders the clock time with a Chinese meridiem marker,
// e.g. 下午 2:05.
func amPMTime(t time.Time) string {
	period := "上午"
	if t.Hour() >= 12 {
		period = "下午"
	}
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%s %d:%02d", period, hour, t.Minute())
}

// EventPlaceholders maps template placeholders to their values for ev.
// Keys are the bare names; the template carries them as [[name]].
func EventPlaceholders(ev *model.Event) map[string]string {
	values := map[string]string{
		"displayId":   ev.DisplayID,
		"building":    ev.Building,
		"type":        ev.Type,
		"subtype":     ev.Subtype,
		"description": ev.Description,
		"reportedBy":  ev.ReportedBy,
		"location":    ev.Location,
		"occurTime":   ev.OccurTime,
		"phenomenon":  ev.Phenomenon,
		"judgement":   ev.Judgement,
		"handling":    ev.Handling,
		"suggestion":  ev.Suggestion,
		"reason":      ev.Reason,
		"status":      ev.Status,
		"createdAt":   ev.CreatedAt,
		"updatedAt":   ev.UpdatedAt,
	}
	if t, ok := parseOccurTime(ev.OccurTime); ok {
		values["occurDateROC"] = rocDate(t)
		values["occurTimeAMPM"] = amPMTime(t)
	} else {
		values["occurDateROC"] = ev.OccurTime
		values["occurTimeAMPM"] = ""
	}
	return values
}

// EventDocx fills the Word template at templatePath with ev's fields and
// writes the result to w.
func EventDocx(templatePath string, ev *model.Event, w io.Writer) error {
	r, err := docx.ReadDocxFile(templatePath)
	if err != nil {
		return errors.Wrapf(err, "failed to open template %s", templatePath)
	}
	defer r.Close()

	doc := r.Editable()
	for name, value := range EventPlaceholders(ev) {
		if err = doc.Replace("[["+name+"]]", value, -1); err != nil {
			return errors.Wrapf(err, "failed to replace placeholder %s", name)
		}
	}
	if err = doc.Write(w); err != nil {
		return errors.Wrap(err, "failed to write document")
	}
	return nil
}

// EventDocxFilename is the download name for ev's report.
func EventDocxFilename(ev *model.Event) string {
	return fmt.Sprintf("%s.docx", ev.DisplayID)
}
