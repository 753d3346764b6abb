//go:build !cgo || !ft4222

package ft4222

type noLib struct{}

var defaultLib lib = noLib{}

func (noLib) devices() ([]DeviceInfo, Status) {
	return nil, StatusNoCGO
}

func (noLib) open(index int) (handle, Status) {
	return nil, StatusNoCGO
}
