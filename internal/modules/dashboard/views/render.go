package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"

	"github.com/deng0529/GUItest-building-heating/internal/dataset"
)

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Option is one entry of the zone picker or the metric checkboxes.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// TableView is a dataset rendered as strings, cut to a row limit.
type TableView struct {
	Columns   []string
	Rows      [][]string
	Total     int
	Truncated bool
}

// NewTableView renders the first limit rows of d. A limit <= 0 keeps every row.
func NewTableView(d *dataset.Dataset, limit int) TableView {
	if d == nil {
		return TableView{}
	}
	n := d.Len()
	if limit > 0 && n > limit {
		n = limit
	}
	cols := d.Columns()
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := d.Row(i)
		out := make([]string, len(row))
		for j, c := range row {
			out[j] = cellText(c)
		}
		rows[i] = out
	}
	return TableView{Columns: cols, Rows: rows, Total: d.Len(), Truncated: n < d.Len()}
}

// DashboardData is the view model of one display cycle.
type DashboardData struct {
	Title string
	// Upload is true when the table came from an uploaded file; the controls
	// then post the file again instead of querying the warehouse.
	Upload     bool
	SourceName string
	Error      string
	Notices    []string

	Charted        bool
	Caption        string
	Zones          []Option
	Metrics        []Option
	FilterOutliers bool
	Fences         []dataset.Fence
	RowsRemoved    int

	Raw       TableView
	Selection TableView
	Summary   []dataset.Summary

	// ChartURL and PNGURL point at the chart endpoints for warehouse data.
	ChartURL string
	PNGURL   string
	// ChartPage and ChartPNG carry the rendered charts inline for uploads.
	ChartPage string
	ChartPNG  template.URL
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// UploadData is the view model of the upload form.
type UploadData struct {
	Title   string
	Error   string
	MaxSize string
	Metrics []Option
}

func RenderUpload(w io.Writer, data *UploadData) error {
	if dashboardTmpl == nil {
		return errors.New("upload template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "upload.html", data)
}

func cellText(c dataset.Cell) string {
	if t, ok := c.TimeValue(); ok {
		return t.Format(timeLabelLayout)
	}
	return c.String()
}
