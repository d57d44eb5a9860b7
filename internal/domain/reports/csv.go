package reports

import (
	"encoding/csv"
	"io"
)

func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.values()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
