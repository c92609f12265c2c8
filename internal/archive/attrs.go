package archive

// #include <hdf5.h>
import "C"

import (
	"fmt"
	"unsafe"
)

func (c *Container) withRaw(writable bool, fn func(rawFile) error) error {
	r, err := openRaw(c.path, writable)
	if err != nil {
		return err
	}
	defer r.close()

	return fn(r)
}

// HasAttr reports whether objPath carries an attribute of the given name.
func (c *Container) HasAttr(objPath, name string) (bool, error) {
	var found bool

	err := c.withRaw(false, func(r rawFile) error {
		found = r.attrExists(objPath, name)

		return nil
	})

	return found, err
}

// AttrNames lists every attribute on objPath, in the container's native
// iteration order.
func (c *Container) AttrNames(objPath string) ([]string, error) {
	var names []string

	err := c.withRaw(false, func(r rawFile) error {
		n, err := r.attrNames(objPath)
		names = n

		return err
	})

	return names, err
}

// StringAttr reads a fixed-length C string attribute, as written by
// writeStringAttr. ok is false if the attribute does not exist.
func (c *Container) StringAttr(objPath, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)

	err := c.withRaw(false, func(r rawFile) error {
		if !r.attrExists(objPath, name) {
			return nil
		}

		size, err := r.stringAttrSize(objPath, name)
		if err != nil {
			return err
		}

		buf := make([]byte, size)

		strtype := C.H5Tcopy(C.H5T_C_S1)
		defer C.H5Tclose(strtype)
		C.H5Tset_size(strtype, C.size_t(size))

		found, err := r.readScalarAttr(objPath, name, strtype, C.size_t(size), unsafe.Pointer(&buf[0]))
		if err != nil {
			return err
		}
		ok = found

		end := len(buf)
		for end > 0 && buf[end-1] == 0 {
			end--
		}
		value = string(buf[:end])

		return nil
	})

	return value, ok, err
}

// Int64Attr reads a scalar NATIVE_INT64 attribute, the type used for
// Created/Modified timestamps.
func (c *Container) Int64Attr(objPath, name string) (int64, bool, error) {
	var (
		value int64
		ok    bool
	)

	err := c.withRaw(false, func(r rawFile) error {
		found, err := r.readScalarAttr(objPath, name, C.H5T_NATIVE_INT64, 8, unsafe.Pointer(&value))
		ok = found

		return err
	})

	return value, ok, err
}

// Uint32Attr reads a scalar NATIVE_UINT32 attribute, the type used for
// Permissions.
func (c *Container) Uint32Attr(objPath, name string) (uint32, bool, error) {
	var (
		value uint32
		ok    bool
	)

	err := c.withRaw(false, func(r rawFile) error {
		found, err := r.readScalarAttr(objPath, name, C.H5T_NATIVE_UINT32, 4, unsafe.Pointer(&value))
		ok = found

		return err
	})

	return value, ok, err
}

// AttrRawBytes reads an attribute's raw value bytes, the content served
// for an attribute-as-file read (spec §4.3/§4.4).
func (c *Container) AttrRawBytes(objPath, name string) ([]byte, error) {
	var data []byte

	err := c.withRaw(false, func(r rawFile) error {
		b, err := r.attrRawBytes(objPath, name)
		data = b

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read attribute %s/%s: %w", objPath, name, err)
	}

	return data, nil
}

func (c *Container) writeStringAttr(objPath, name, value string) error {
	return c.withRaw(true, func(r rawFile) error {
		size := len(value) + 1
		buf := make([]byte, size)
		copy(buf, value)

		strtype := C.H5Tcopy(C.H5T_C_S1)
		defer C.H5Tclose(strtype)
		C.H5Tset_size(strtype, C.size_t(size))

		return r.writeScalarAttr(objPath, name, strtype, C.size_t(size), unsafe.Pointer(&buf[0]))
	})
}

func (c *Container) writeInt64Attr(objPath, name string, value int64) error {
	return c.withRaw(true, func(r rawFile) error {
		return r.writeScalarAttr(objPath, name, C.H5T_NATIVE_INT64, 8, unsafe.Pointer(&value))
	})
}

func (c *Container) writeUint32Attr(objPath, name string, value uint32) error {
	return c.withRaw(true, func(r rawFile) error {
		return r.writeScalarAttr(objPath, name, C.H5T_NATIVE_UINT32, 4, unsafe.Pointer(&value))
	})
}

// WriteObjectMeta writes the Created/Modified/Permissions attribute
// triple that every group and dataset carries (spec §3).
func (c *Container) WriteObjectMeta(objPath string, created, modified int64, perm uint32) error {
	if err := c.writeInt64Attr(objPath, AttrCreated, created); err != nil {
		return fmt.Errorf("write %s.Created: %w", objPath, err)
	}
	if err := c.writeInt64Attr(objPath, AttrModified, modified); err != nil {
		return fmt.Errorf("write %s.Modified: %w", objPath, err)
	}
	if err := c.writeUint32Attr(objPath, AttrPermissions, perm); err != nil {
		return fmt.Errorf("write %s.Permissions: %w", objPath, err)
	}

	return nil
}

// WriteMD5Hash writes the MD5Hash attribute on a dataset.
func (c *Container) WriteMD5Hash(datasetPath, hexDigest string) error {
	return c.writeStringAttr(datasetPath, AttrMD5Hash, hexDigest)
}

// WriteExternalLink marks a group as an external link, storing the host
// path it refers to.
func (c *Container) WriteExternalLink(groupPath, hostPath string) error {
	return c.writeStringAttr(groupPath, AttrExternalLink, hostPath)
}
