package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

type styleKind int

const (
	styleHeader styleKind = iota
	styleTitle
	styleCell
	styleMoney
	styleLabel
	styleLabelMoney
)

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
}

func styleDefinition(kind styleKind) *excelize.Style {
	money := moneyFormat
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}
	left := &excelize.Alignment{Horizontal: "left", Vertical: "center"}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	switch kind {
	case styleTitle:
		return &excelize.Style{
			Fill:      fill(headerColor),
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 14},
			Alignment: center,
			Border:    thinBorder(),
		}
	case styleHeader:
		return &excelize.Style{
			Fill:      fill(headerColor),
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
			Alignment: center,
			Border:    thinBorder(),
		}
	case styleMoney:
		return &excelize.Style{
			Fill:         fill(cellColor),
			Alignment:    left,
			Border:       thinBorder(),
			CustomNumFmt: &money,
		}
	case styleLabel:
		return &excelize.Style{
			Fill:      fill(cellColor),
			Font:      &excelize.Font{Bold: true},
			Alignment: left,
			Border:    thinBorder(),
		}
	case styleLabelMoney:
		return &excelize.Style{
			Fill:         fill(cellColor),
			Font:         &excelize.Font{Bold: true},
			Alignment:    left,
			Border:       thinBorder(),
			CustomNumFmt: &money,
		}
	default:
		return &excelize.Style{
			Fill:      fill(cellColor),
			Alignment: left,
			Border:    thinBorder(),
		}
	}
}

// style returns the id of kind in the workbook, registering it on first use.
func (w *Workbook) style(kind styleKind) (int, error) {
	if id, ok := w.styles[kind]; ok {
		return id, nil
	}
	id, err := w.f.NewStyle(styleDefinition(kind))
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	w.styles[kind] = id
	return id, nil
}

func (w *Workbook) paint(sheet, from, to string, kind styleKind) error {
	id, err := w.style(kind)
	if err != nil {
		return err
	}
	return w.f.SetCellStyle(sheet, from, to, id)
}
