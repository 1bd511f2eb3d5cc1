package chart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/entity"
	"github.com/MyFaduGame/csv-analyzer/internal/analyzer/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, csv string) *entity.Table {
	t.Helper()
	tbl, err := table.ParseCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	return tbl
}

func TestClassify(t *testing.T) {
	distinct := func(n int) string {
		var b strings.Builder
		b.WriteString("c\n")
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "v%d\n", i)
		}
		return b.String()
	}

	tests := []struct {
		name string
		csv  string
		want entity.ChartKind
	}{
		{name: "integers", csv: "c\n1\n2\n3\n", want: entity.ChartHistogram},
		{name: "floats with missing", csv: "c\n1.5\n\n3\n", want: entity.ChartHistogram},
		{name: "all missing", csv: "c\nNA\n\nnull\n", want: entity.ChartSkip},
		{name: "two categories", csv: "c\nred\nblue\nred\n", want: entity.ChartPie},
		{name: "bool", csv: "c\ntrue\nfalse\n", want: entity.ChartPie},
		{name: "ten categories", csv: distinct(10), want: entity.ChartPie},
		{name: "eleven categories", csv: distinct(11), want: entity.ChartSkip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := parse(t, tt.csv)
			assert.Equal(t, tt.want, Classify(tbl.Columns[0]))
		})
	}
}

func TestPlanCoversEveryColumnOnce(t *testing.T) {
	tbl := parse(t, "n,color,id,empty\n1,red,a,\n2,blue,b,\n3,red,c,\n4,red,d,\n5,red,e,\n6,red,f,\n7,red,g,\n8,red,h,\n9,red,i,\n10,red,j,\n11,red,k,\n")

	kinds := map[entity.ChartKind]int{}
	for _, c := range tbl.Columns {
		kinds[Classify(c)]++
	}
	assert.Equal(t, len(tbl.Columns), kinds[entity.ChartHistogram]+kinds[entity.ChartPie]+kinds[entity.ChartSkip])

	jobs := Plan(tbl)
	require.Len(t, jobs, 2)
	assert.Equal(t, "n", jobs[0].Column.Name)
	assert.Equal(t, entity.ChartHistogram, jobs[0].Kind)
	assert.Equal(t, "color", jobs[1].Column.Name)
	assert.Equal(t, entity.ChartPie, jobs[1].Kind)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "id_total_sales_hist.png", FileName("id", "total sales", entity.ChartHistogram))
	assert.Equal(t, "id_a_b_pie.png", FileName("id", "a/../b", entity.ChartPie))
	assert.Equal(t, "id_column_pie.png", FileName("id", "%%%", entity.ChartPie))
}

func TestGenerateThreeRowTable(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(Config{Dir: dir, Width: 400, Height: 300, Concurrency: 2})

	tbl := parse(t, "n,color\n1,red\n2,blue\n3,red\n")
	paths, err := g.Generate(context.Background(), "ds1", tbl)
	require.NoError(t, err)

	require.Equal(t, []string{
		filepath.Join(dir, "ds1_n_hist.png"),
		filepath.Join(dir, "ds1_color_pie.png"),
	}, paths)

	for _, p := range paths {
		raw, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(raw, []byte("\x89PNG")), "%s is not a png", p)
	}
}

func TestGenerateSingleValueColumn(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(Config{Dir: dir, Width: 400, Height: 300})

	paths, err := g.Generate(context.Background(), "ds", parse(t, "n\n5\n"))
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestGenerateSkipsWideCategoricalColumn(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(Config{Dir: dir, Width: 400, Height: 300})

	var b strings.Builder
	b.WriteString("city\n")
	for i := 0; i < 11; i++ {
		fmt.Fprintf(&b, "city-%d\n", i)
	}

	paths, err := g.Generate(context.Background(), "ds", parse(t, b.String()))
	require.NoError(t, err)
	assert.Empty(t, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type fakeRenderer struct {
	failPie  bool
	panicPie bool
}

func (f fakeRenderer) Histogram(w io.Writer, title string, h histogramData) error {
	_, err := io.WriteString(w, title)
	return err
}

func (f fakeRenderer) Pie(w io.Writer, title string, slices []pieSlice) error {
	if f.panicPie {
		panic("slice out of range")
	}
	if f.failPie {
		return errors.New("boom")
	}
	_, err := io.WriteString(w, title)
	return err
}

func TestGenerateSkipsFailedColumns(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(Config{Dir: dir})
	g.render = fakeRenderer{failPie: true}

	paths, err := g.Generate(context.Background(), "ds", parse(t, "a,color,b\n1,x,2\n2,y,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "ds_a_hist.png"),
		filepath.Join(dir, "ds_b_hist.png"),
	}, paths)

	_, err = os.Stat(filepath.Join(dir, "ds_color_pie.png"))
	assert.True(t, os.IsNotExist(err), "partial file should be removed")

	raw, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "a Visualization", string(raw))
}

func TestGenerateExtremeRangeOnlySkipsThatColumn(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(Config{Dir: dir, Width: 400, Height: 300})

	paths, err := g.Generate(context.Background(), "ds",
		parse(t, "huge,n,color\n-1e308,1,red\n0,2,blue\n1e308,3,red\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "ds_n_hist.png"),
		filepath.Join(dir, "ds_color_pie.png"),
	}, paths)

	_, err = os.Stat(filepath.Join(dir, "ds_huge_hist.png"))
	assert.True(t, os.IsNotExist(err), "failed chart should leave no file")
}

func TestGenerateRecoversRendererPanic(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(Config{Dir: dir})
	g.render = fakeRenderer{panicPie: true}

	paths, err := g.Generate(context.Background(), "ds", parse(t, "a,color\n1,x\n2,y\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "ds_a_hist.png")}, paths)

	_, err = os.Stat(filepath.Join(dir, "ds_color_pie.png"))
	assert.True(t, os.IsNotExist(err), "partial file should be removed")
}

func TestGenerateCollidingNames(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(Config{Dir: dir})
	g.render = fakeRenderer{}

	paths, err := g.Generate(context.Background(), "ds", parse(t, "a b,a_b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "ds_a_b_hist.png"),
		filepath.Join(dir, "ds_a_b_1_hist.png"),
	}, paths)
}

func TestGenerateCancelled(t *testing.T) {
	g := NewGenerator(Config{Dir: t.TempDir()})
	g.render = fakeRenderer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "ds", parse(t, "a\n1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildHistogram(t *testing.T) {
	h, err := buildHistogram([]float64{1, 2, 2, 3, 3, 3, 4, 4, 5})
	require.NoError(t, err)

	assert.Len(t, h.Counts, sturges(9))
	var total float64
	for _, c := range h.Counts {
		total += c
	}
	assert.Equal(t, 9.0, total)
	assert.Len(t, h.KDEX, kdePoints)
	assert.Len(t, h.KDEY, kdePoints)

	_, err = buildHistogram(nil)
	assert.Error(t, err)

	_, err = buildHistogram([]float64{-1e308, 0, 1e308})
	assert.Error(t, err, "range overflows float64")

	_, err = buildHistogram([]float64{1e16, 1e16 + 2, 1e16 + 2})
	assert.Error(t, err, "dividers collapse at this magnitude")
}

func TestSturges(t *testing.T) {
	assert.Equal(t, 1, sturges(1))
	assert.Equal(t, 2, sturges(2))
	assert.Equal(t, 3, sturges(3))
	assert.Equal(t, 11, sturges(1000))
}

func TestPieData(t *testing.T) {
	got := pieData([]string{"b", "a", "a", "c"})
	require.Len(t, got, 3)
	assert.Equal(t, "a (50.0%)", got[0].Label)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, "b (25.0%)", got[1].Label)
	assert.Equal(t, "c (25.0%)", got[2].Label)
}
