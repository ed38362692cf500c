package document_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/pageflow/pkg/document"
)

func ExampleRead() {
	src := `
region_height = 700

[template.page]
height = 800
columns = 2

[[components]]
id = "intro"
type = "text"
`
	doc, err := document.Read(strings.NewReader(src), document.FormatTOML)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(len(doc.Components), doc.Components[0].ID, doc.Template.Page.ColumnCount())
	// Output:
	// 1 intro 2
}
