package common

import "fmt"

var (
	ErrNotFound             = fmt.Errorf("not found")
	ErrPathExists           = fmt.Errorf("path already exists")
	ErrNotAFolder           = fmt.Errorf("not a folder")
	ErrRootFolderNotFound   = fmt.Errorf("root folder not found")
	ErrParentFolderNotFound = fmt.Errorf("parent folder not found")
	ErrUnknownBackend       = fmt.Errorf("unknown repository backend")
)
