// Code generated by musgen-go. DO NOT EDIT.

package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

var (
	sliceNsDEPDyHLAhΣo5qEYΣDw8AΞΞ = ord.NewSliceSer[float32](varint.Float32)
)

var IDMUS = iDMUS{}

type iDMUS struct{}

func (s iDMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s iDMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = ID(tmp)
	return
}

func (s iDMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s iDMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

var TenantIDMUS = tenantIDMUS{}

type tenantIDMUS struct{}

func (s tenantIDMUS) Marshal(v TenantID, bs []byte) (n int) {
	return ord.String.Marshal(string(v), bs)
}

func (s tenantIDMUS) Unmarshal(bs []byte) (v TenantID, n int, err error) {
	tmp, n, err := ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v = TenantID(tmp)
	return
}

func (s tenantIDMUS) Size(v TenantID) (size int) {
	return ord.String.Size(string(v))
}

func (s tenantIDMUS) Skip(bs []byte) (n int, err error) {
	return ord.String.Skip(bs)
}

var ParseStatusMUS = parseStatusMUS{}

type parseStatusMUS struct{}

func (s parseStatusMUS) Marshal(v ParseStatus, bs []byte) (n int) {
	return varint.Int.Marshal(int(v), bs)
}

func (s parseStatusMUS) Unmarshal(bs []byte) (v ParseStatus, n int, err error) {
	tmp, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	v = ParseStatus(tmp)
	return
}

func (s parseStatusMUS) Size(v ParseStatus) (size int) {
	return varint.Int.Size(int(v))
}

func (s parseStatusMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int.Skip(bs)
}

var DocumentMUS = documentMUS{}

type documentMUS struct{}

func (s documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += TenantIDMUS.Marshal(v.Tenant, bs[n:])
	n += ord.String.Marshal(v.Filename, bs[n:])
	n += ord.String.Marshal(v.MIMEType, bs[n:])
	n += varint.Int64.Marshal(v.ByteSize, bs[n:])
	n += ord.String.Marshal(v.ContentHash, bs[n:])
	n += ParseStatusMUS.Marshal(v.Status, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += raw.TimeUnixMicroUTC.Marshal(v.UploadedAt, bs[n:])
	return n + raw.TimeUnixMicroUTC.Marshal(v.ParsedAt, bs[n:])
}

func (s documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Tenant, n1, err = TenantIDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Filename, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.MIMEType, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ByteSize, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ContentHash, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Status, n1, err = ParseStatusMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UploadedAt, n1, err = raw.TimeUnixMicroUTC.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ParsedAt, n1, err = raw.TimeUnixMicroUTC.Unmarshal(bs[n:])
	n += n1
	return
}

func (s documentMUS) Size(v Document) (size int) {
	size = IDMUS.Size(v.Id)
	size += TenantIDMUS.Size(v.Tenant)
	size += ord.String.Size(v.Filename)
	size += ord.String.Size(v.MIMEType)
	size += varint.Int64.Size(v.ByteSize)
	size += ord.String.Size(v.ContentHash)
	size += ParseStatusMUS.Size(v.Status)
	size += ord.String.Size(v.Text)
	size += raw.TimeUnixMicroUTC.Size(v.UploadedAt)
	return size + raw.TimeUnixMicroUTC.Size(v.ParsedAt)
}

func (s documentMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = TenantIDMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ParseStatusMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicroUTC.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicroUTC.Skip(bs[n:])
	n += n1
	return
}

var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (s chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.DocumentId, bs[n:])
	n += TenantIDMUS.Marshal(v.Tenant, bs[n:])
	n += varint.Int.Marshal(v.Ordinal, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += varint.Int.Marshal(v.CharLen, bs[n:])
	n += sliceNsDEPDyHLAhΣo5qEYΣDw8AΞΞ.Marshal(v.Vector, bs[n:])
	return n + ord.String.Marshal(v.EmbeddingModel, bs[n:])
}

func (s chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	v.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.DocumentId, n1, err = IDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Tenant, n1, err = TenantIDMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.CharLen, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = sliceNsDEPDyHLAhΣo5qEYΣDw8AΞΞ.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (s chunkMUS) Size(v Chunk) (size int) {
	size = IDMUS.Size(v.Id)
	size += IDMUS.Size(v.DocumentId)
	size += TenantIDMUS.Size(v.Tenant)
	size += varint.Int.Size(v.Ordinal)
	size += ord.String.Size(v.Text)
	size += varint.Int.Size(v.CharLen)
	size += sliceNsDEPDyHLAhΣo5qEYΣDw8AΞΞ.Size(v.Vector)
	return size + ord.String.Size(v.EmbeddingModel)
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = IDMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = TenantIDMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = sliceNsDEPDyHLAhΣo5qEYΣDw8AΞΞ.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

var IndexManifestMUS = indexManifestMUS{}

type indexManifestMUS struct{}

func (s indexManifestMUS) Marshal(v IndexManifest, bs []byte) (n int) {
	n = TenantIDMUS.Marshal(v.Tenant, bs)
	n += varint.Uint64.Marshal(v.Version, bs[n:])
	n += ord.String.Marshal(v.EmbeddingModel, bs[n:])
	n += varint.Int.Marshal(v.Dimension, bs[n:])
	n += varint.Int.Marshal(v.ChunkCount, bs[n:])
	return n + raw.TimeUnixMicroUTC.Marshal(v.BuiltAt, bs[n:])
}

func (s indexManifestMUS) Unmarshal(bs []byte) (v IndexManifest, n int, err error) {
	v.Tenant, n, err = TenantIDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Version, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Dimension, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.BuiltAt, n1, err = raw.TimeUnixMicroUTC.Unmarshal(bs[n:])
	n += n1
	return
}

func (s indexManifestMUS) Size(v IndexManifest) (size int) {
	size = TenantIDMUS.Size(v.Tenant)
	size += varint.Uint64.Size(v.Version)
	size += ord.String.Size(v.EmbeddingModel)
	size += varint.Int.Size(v.Dimension)
	size += varint.Int.Size(v.ChunkCount)
	return size + raw.TimeUnixMicroUTC.Size(v.BuiltAt)
}

func (s indexManifestMUS) Skip(bs []byte) (n int, err error) {
	n, err = TenantIDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = varint.Uint64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = raw.TimeUnixMicroUTC.Skip(bs[n:])
	n += n1
	return
}
