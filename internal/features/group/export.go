package group

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/hicham-zad/pikonote-backend/internal/common/apperr"
	"github.com/hicham-zad/pikonote-backend/pkg/utils"

	"github.com/xuri/excelize/v2"
)

const historySheet = "Vote History"

var historyColumns = []string{"Voted At", "Movie ID", "Title", "Vote %", "Total Votes", "Voters", "Poster"}

// ExportHistoryToExcel renders the group's vote history, newest first, as an
// xlsx workbook.
func ExportHistoryToExcel(group *Group) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return nil, apperr.Storage("build history workbook", err)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	for i, col := range historyColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(historySheet, cell, col)
		f.SetCellStyle(historySheet, cell, cell, headerStyle)
	}

	for rowIdx, entry := range NormalizeHistory(group.VoteHistory) {
		row := []interface{}{
			entry.VotedAt.UTC().Format("2006-01-02 15:04:05"),
			entry.MovieID,
			entry.MovieTitle,
			entry.VotePercentage,
			entry.TotalVotes,
			strings.Join(entry.Voters, ", "),
			entry.MoviePoster,
		}
		for colIdx, val := range row {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(historySheet, cell, val)
		}
	}

	for i := range historyColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(historySheet, col, col, 18)
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperr.Storage("write history workbook", err)
	}
	return buffer, nil
}

func HistoryExportFilename(group *Group, now time.Time) string {
	return fmt.Sprintf("%s-vote-history-%s.xlsx", utils.Slugify(group.Name), now.UTC().Format("20060102"))
}
