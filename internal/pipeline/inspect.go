package pipeline

import (
	"github.com/JonMunkholm/listas/internal/archive"
	"github.com/JonMunkholm/listas/internal/core"
	"github.com/JonMunkholm/listas/internal/sheet"
)

// FileSummary describes one upload as it would appear in the archive.
type FileSummary struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Rows  int    `json:"rows"`
	Sheet string `json:"sheet"`
	Entry string `json:"entry"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
	Err   error  `json:"-"`
}

// OK reports whether the upload would render.
func (s FileSummary) OK() bool {
	return s.Err == nil
}

// Inspect validates every upload without rendering and reports what each
// would produce. Problems are recorded per file rather than aborting.
func (s *Service) Inspect(uploads []Upload) ([]FileSummary, error) {
	if err := s.checkBatch(uploads); err != nil {
		return nil, err
	}

	names := make([]string, len(uploads))
	for i, u := range uploads {
		names[i] = EntryName(u.Name)
	}
	names = archive.UniqueNames(names)

	out := make([]FileSummary, len(uploads))
	for i, u := range uploads {
		sum := FileSummary{
			Name:  u.Name,
			Size:  len(u.Data),
			Sheet: sheet.Name(u.Name),
			Entry: names[i],
		}
		table, err := loadTable(u)
		if err != nil {
			sum.Err = err
			sum.Error = err.Error()
			sum.Code = core.MapError(err).Code
		} else {
			sum.Rows = len(table.Rows)
		}
		out[i] = sum
	}
	return out, nil
}
