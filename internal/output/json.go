package output

import "encoding/json"

// JSONFormatter renders a report as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatReport renders the document as JSON.
func (f *JSONFormatter) FormatReport(doc *Document) (string, error) {
	if doc == nil || doc.Report == nil {
		return "", nil
	}

	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
