//go:build windows

package mmap

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

func mapFile(f *os.File, size int) (region, error) {
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return region{}, err
	}
	// The view holds its own reference to the mapping object.
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return region{}, err
	}
	return region{
		data:    unsafe.Slice((*byte)(unsafe.Pointer(addr)), size),
		release: func() error { return windows.UnmapViewOfFile(addr) },
	}, nil
}

func mapAnon(size int) (region, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return region{}, err
	}
	return region{
		data:    unsafe.Slice((*byte)(unsafe.Pointer(addr)), size),
		release: func() error { return windows.VirtualFree(addr, 0, windows.MEM_RELEASE) },
	}, nil
}

func advise([]byte, Advice) error { return nil }
