package probe

import (
	"fmt"
	"strings"
	"time"

	"schema-sentinel/internal/catalog"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog/log"
)

func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

// Fake expands a fixture value of the form "fake:<kind>". Other values are
// returned unchanged.
func Fake(v any) any {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "fake:") {
		return v
	}
	switch kind := strings.TrimPrefix(s, "fake:"); kind {
	case "name":
		return gofakeit.Name()
	case "email":
		return gofakeit.Email()
	case "company":
		return gofakeit.Company()
	case "phone":
		return gofakeit.Phone()
	case "word":
		return gofakeit.Word()
	case "sentence":
		return gofakeit.Sentence(6)
	case "city":
		return gofakeit.City()
	case "address":
		return gofakeit.Street()
	case "number":
		return gofakeit.Number(1, 1000)
	default:
		log.Debug().Str("kind", kind).Msg("unknown fake kind, using literal value")
		return s
	}
}

// GenerateValue generates a plausible value for a column the fixture does not
// mention. Only NOT NULL columns without a default are filled, so the value
// just has to be accepted, not meaningful.
func GenerateValue(col *catalog.Column) any {
	dataType := strings.ToLower(col.DataType)
	colName := strings.ToLower(col.Name)
	meaning := AnalyzeMeaning(col.Name)

	// 1. Strings (meaning first)
	if strings.Contains(dataType, "char") || strings.Contains(dataType, "text") ||
		strings.Contains(dataType, "string") || strings.Contains(dataType, "clob") {

		isID := strings.HasSuffix(colName, "id") || strings.HasSuffix(colName, "_id")

		if strings.Contains(meaning, "year") {
			return fmt.Sprintf("%d", gofakeit.Number(2000, 2025))
		}
		if !isID && strings.Contains(meaning, "phone") {
			return truncate(gofakeit.Phone(), col.Length)
		}
		if !isID && strings.Contains(meaning, "email") {
			return truncate(gofakeit.Email(), col.Length)
		}
		if !isID && (strings.Contains(meaning, "name") || strings.Contains(colName, "first") ||
			strings.Contains(colName, "last")) {
			return truncate(gofakeit.Name(), col.Length)
		}
		if !isID && strings.Contains(meaning, "address") {
			return truncate(gofakeit.Street(), col.Length)
		}
		if strings.Contains(meaning, "zipcode") {
			return fmt.Sprintf("%05d", gofakeit.Number(0, 99999))
		}
		if strings.Contains(meaning, "yesno") || strings.Contains(colName, "active") {
			if gofakeit.Bool() {
				return "Y"
			}
			return "N"
		}
		if !isID && (strings.Contains(meaning, "title") || strings.Contains(meaning, "subject")) {
			return truncate(gofakeit.Sentence(3), col.Length)
		}
		if !isID && (strings.Contains(meaning, "description") || strings.Contains(meaning, "message") ||
			strings.Contains(meaning, "text") || strings.Contains(meaning, "comment")) {
			return truncate(gofakeit.Sentence(10), col.Length)
		}
		if !isID && strings.Contains(meaning, "country") {
			return truncate(gofakeit.Country(), col.Length)
		}
		if !isID && strings.Contains(meaning, "city") {
			return truncate(gofakeit.City(), col.Length)
		}
		if strings.Contains(meaning, "url") {
			return truncate(gofakeit.URL(), col.Length)
		}

		if col.Length > 0 && col.Length < 20 {
			return truncate(gofakeit.Word(), col.Length)
		}
		return truncate(gofakeit.Sentence(5), col.Length)
	}

	// 2. Everything else goes by type.

	// Dates are formatted strings; every supported driver accepts them.
	if strings.Contains(dataType, "date") || strings.Contains(dataType, "time") {
		val := gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now())
		switch dataType {
		case "date":
			return val.Format("2006-01-02")
		case "time":
			return val.Format("15:04:05")
		}
		return val.Format("2006-01-02 15:04:05")
	}

	if strings.Contains(dataType, "bool") || dataType == "bit" {
		return gofakeit.Bool()
	}

	if strings.Contains(dataType, "int") {
		if strings.Contains(colName, "active") || strings.Contains(colName, "enabled") ||
			strings.Contains(meaning, "yesno") {
			return gofakeit.Number(0, 1)
		}
		if strings.Contains(dataType, "tinyint") {
			return gofakeit.Number(0, 127)
		}
		if strings.Contains(dataType, "smallint") {
			return gofakeit.Number(1, 30000)
		}
		if strings.Contains(meaning, "year") {
			return gofakeit.Number(2000, 2025)
		}

		// Respect column precision if available
		maxVal := 50000
		if col.Length > 0 && col.Length < 10 {
			limit := 1
			for i := 0; i < col.Length; i++ {
				limit *= 10
			}
			if limit-1 < maxVal {
				maxVal = max(limit-1, 9)
			}
		}
		return gofakeit.Number(1, maxVal)
	}

	if strings.Contains(dataType, "decimal") || strings.Contains(dataType, "numeric") ||
		strings.Contains(dataType, "number") || strings.Contains(dataType, "money") {
		return fmt.Sprintf("%.2f", gofakeit.Price(0.99, 99.99))
	}
	if strings.Contains(dataType, "float") || strings.Contains(dataType, "double") ||
		strings.Contains(dataType, "real") {
		return gofakeit.Price(0.99, 99.99)
	}

	if strings.Contains(dataType, "uuid") || strings.Contains(dataType, "uniqueidentifier") {
		return gofakeit.UUID()
	}

	if strings.Contains(dataType, "json") {
		return "{}"
	}

	if strings.Contains(dataType, "binary") || strings.Contains(dataType, "blob") ||
		strings.Contains(dataType, "bytea") {
		return []byte("probe")
	}

	return nil
}
