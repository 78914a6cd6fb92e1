package archive

import (
	"fmt"

	"github.com/rpggio/pdmvault/internal/domain/document"
)

// File extensions of the CAD documents kept in the archive.
const (
	ExtPart    = ".sldprt"
	ExtAssy    = ".sldasm"
	ExtDrawing = ".slddrw"
)

const inRevSuffix = "__INREV"

// ModelExt returns the model extension for a document type.
func ModelExt(t document.DocType) string {
	if t == document.DocTypePart {
		return ExtPart
	}
	return ExtAssy
}

// InRevTag is the stem of an in-revision working copy: CODE_R03__INREV.
func InRevTag(code string, revision int) string {
	return fmt.Sprintf("%s_R%02d%s", code, revision, inRevSuffix)
}

// RevTag is the stem of an archived historical revision: CODE_R03.
func RevTag(code string, revision int) string {
	return fmt.Sprintf("%s_R%02d", code, revision)
}

// ModelName is stem + model extension.
func ModelName(stem string, t document.DocType) string {
	return stem + ModelExt(t)
}

// DrawingName is stem + drawing extension.
func DrawingName(stem string) string {
	return stem + ExtDrawing
}

// InRevPattern matches every in-revision copy of code with extension ext.
func InRevPattern(code, ext string) string {
	return code + "_R*" + inRevSuffix + ext
}

// RevPattern matches every historical revision of code with extension ext.
func RevPattern(code, ext string) string {
	return code + "_R*" + ext
}
