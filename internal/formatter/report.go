package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"deathmap/internal/filter"
	"deathmap/internal/models"
	"deathmap/internal/stats"
)

// ReportInput is everything a statistics report shows.
type ReportInput struct {
	Metadata     models.Metadata
	Year         int
	DatasetTotal int
	Filters      filter.Spec
	Summary      stats.Summary
}

// Report renders a markdown report of in.Summary.
func Report(in ReportInput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Muertes violentas %d\n\n", in.Year)
	fmt.Fprintf(&sb, "Fuente: %s (%s)\n", in.Metadata.Source, in.Metadata.SourceURL)

	if in.Metadata.LastUpdated != "" {
		fmt.Fprintf(&sb, "Actualizado: %s\n", in.Metadata.LastUpdated)
	}

	fmt.Fprintf(&sb, "Registros: %d de %d\n", in.Summary.Total, in.DatasetTotal)

	if filters := describeFilters(in.Filters); len(filters) > 0 {
		sb.WriteString("\n## Filtros\n\n")

		for _, f := range filters {
			fmt.Fprintf(&sb, "- %s\n", f)
		}
	}

	total := in.Summary.Total

	section(&sb, "Por tipo", []string{"Tipo", "Registros", "%"}, countRows(in.Summary.ByType, total))
	section(&sb, "Departamentos", []string{"Departamento", "Registros", "%"}, countRows(in.Summary.ByDepartment, total))

	genders := make([]stats.Count, 0, len(models.Genders))
	for _, g := range models.Genders {
		genders = append(genders, stats.Count{Name: string(g), Value: in.Summary.ByGender[g]})
	}

	section(&sb, "Género", []string{"Género", "Registros", "%"}, countRows(genders, total))
	section(&sb, "Grupos de edad", []string{"Edad", "Registros", "%"}, countRows(in.Summary.ByAgeGroup, total))

	if len(in.Metadata.Approximations) > 0 {
		fmt.Fprintf(&sb, "\nCampos aproximados: %s\n", strings.Join(in.Metadata.Approximations, ", "))
	}

	return sb.String()
}

func section(sb *strings.Builder, title string, header []string, rows [][]string) {
	fmt.Fprintf(sb, "\n## %s\n\n", title)

	if len(rows) == 0 {
		sb.WriteString("Sin registros.\n")
		return
	}

	for _, line := range RenderTable(header, rows) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
}

func countRows(counts []stats.Count, total int) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Name, strconv.Itoa(c.Value), fmt.Sprintf("%.1f", stats.Share(c.Value, total))})
	}

	return rows
}

func describeFilters(s filter.Spec) []string {
	var out []string

	if len(s.Years) > 0 {
		out = append(out, "Años: "+joinAny(s.Years))
	}

	if len(s.DeathTypes) > 0 {
		out = append(out, "Tipos: "+joinAny(s.DeathTypes))
	}

	if len(s.Departments) > 0 {
		out = append(out, "Departamentos: "+strings.Join(s.Departments, ", "))
	}

	if len(s.Municipalities) > 0 {
		out = append(out, "Municipios: "+strings.Join(s.Municipalities, ", "))
	}

	if s.AgeRange != (filter.AgeRange{filter.MinAge, filter.MaxAge}) {
		out = append(out, fmt.Sprintf("Edad: %d-%d", s.AgeRange[0], s.AgeRange[1]))
	}

	if len(s.Gender) > 0 {
		out = append(out, "Género: "+joinAny(s.Gender))
	}

	if s.DateRange.Active() {
		out = append(out, fmt.Sprintf("Fechas: %s a %s", s.DateRange[0], s.DateRange[1]))
	}

	return out
}

func joinAny[T any](items []T) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprint(it)
	}

	return strings.Join(parts, ", ")
}
