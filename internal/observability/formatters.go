// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jonathan/school-finder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// nameWidth is the column width for school names in tables
	nameWidth = 28
	// recommendedMark flags a school the advice recommended
	recommendedMark = "★"
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Widths are
// measured in terminal cells so full-width text stays aligned; long content
// lines wrap inside the box.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", runewidth.FillRight(runewidth.Truncate(title, inner, "..."), inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(runewidth.Wrap(content, inner), "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", runewidth.FillRight(line, inner))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSchools outputs the visible schools as a table. Schools whose ID is in
// recommended are marked.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSchools(schools []types.School, recommended []int) {
	if len(schools) == 0 {
		fmt.Fprintln(p.out, "条件に一致する学校はありません。")
		return
	}

	header := fmt.Sprintf("   %4s  %s  %6s  %-4s  %s  %s",
		"ID", runewidth.FillRight("学校名", nameWidth), "偏差値", "種別", runewidth.FillRight("課程", 14), "通学")
	fmt.Fprintln(p.out, header)
	fmt.Fprintln(p.out, strings.Repeat("─", runewidth.StringWidth(header)))

	for _, s := range schools {
		mark := " "
		if slices.Contains(recommended, s.ID) {
			mark = recommendedMark
		}
		fmt.Fprintf(p.out, "%s  %4d  %s  %6.1f  %s  %s  %3d分\n",
			mark,
			s.ID,
			runewidth.FillRight(runewidth.Truncate(s.Name, nameWidth, "..."), nameWidth),
			s.Deviation,
			string(s.Type),
			runewidth.FillRight(categories(s.Category), 14),
			s.CommuteTime,
		)
	}
	fmt.Fprintf(p.out, "\n%d 校\n", len(schools))
}

// PrintState outputs the active filters and sort mode.
func (p *Printer) PrintState(filters types.Filters, sortType types.SortType, visible, total int) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("種別:  %s\n", joinOrAll(filters.ActiveTypes())))
	sb.WriteString(fmt.Sprintf("課程:  %s\n", joinOrAll(filters.ActiveCategories())))
	sb.WriteString(fmt.Sprintf("制度:  %s\n", joinOrAll(filters.ActiveSystems())))
	sb.WriteString(fmt.Sprintf("並び順: %s\n", sortType))
	sb.WriteString(fmt.Sprintf("表示:  %d / %d 校", visible, total))

	p.printBox("SEARCH CONDITIONS", sb.String())
}

// PrintAdvice outputs the advice text and the recommended schools by name.
func (p *Printer) PrintAdvice(result *types.AdviceResult, schools []types.School) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(runewidth.Wrap(strings.TrimSpace(result.Advice), boxWidth-4))

	if len(result.RecommendedSchoolIDs) > 0 {
		sb.WriteString("\n\nおすすめ:\n")
		for _, id := range result.RecommendedSchoolIDs {
			idx := slices.IndexFunc(schools, func(s types.School) bool { return s.ID == id })
			if idx < 0 {
				sb.WriteString(fmt.Sprintf("  %s #%d (一覧にありません)\n", recommendedMark, id))
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", recommendedMark, schools[idx].Name))
		}
	}

	p.printBox("AI ADVICE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAdviceError outputs the user-facing advice failure message on one
// line, never wrapped or shortened.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintAdviceError(message string) {
	fmt.Fprintf(p.out, "\n⚠ %s\n", message)
}

// PrintDatasetSummary outputs counts for a validated dataset.
func (p *Printer) PrintDatasetSummary(source string, schools []types.School) {
	byType := map[types.SchoolType]int{}
	byCategory := map[types.SchoolCategory]int{}
	bySystem := map[types.SchoolSystem]int{}
	for _, s := range schools {
		byType[s.Type]++
		bySystem[s.System]++
		for _, c := range s.Category {
			byCategory[c]++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source:   %s\n", source))
	sb.WriteString(fmt.Sprintf("Schools:  %d\n\n", len(schools)))
	sb.WriteString(fmt.Sprintf("%s %d  %s %d\n",
		types.SchoolTypePublic, byType[types.SchoolTypePublic],
		types.SchoolTypePrivate, byType[types.SchoolTypePrivate]))
	sb.WriteString(fmt.Sprintf("%s %d  %s %d  %s %d\n",
		types.CategoryFullTime, byCategory[types.CategoryFullTime],
		types.CategoryPartTime, byCategory[types.CategoryPartTime],
		types.CategoryCorrespondence, byCategory[types.CategoryCorrespondence]))
	sb.WriteString(fmt.Sprintf("%s %d  %s %d",
		types.SystemGrade, bySystem[types.SystemGrade],
		types.SystemCredit, bySystem[types.SystemCredit]))

	p.printBox("✅ DATASET VALID", sb.String())
}

func categories(cs []types.SchoolCategory) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, "・")
}

func joinOrAll[T ~string](values []T) string {
	if len(values) == 0 {
		return "(すべて)"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
