//go:build bench
// +build bench

package codec

import (
	"bytes"
	"testing"
)

func BenchmarkRecordCodec_Encode(b *testing.B) {
	codec := NewRecordCodec()

	benchmarks := []struct {
		name  string
		key   []byte
		value []byte
	}{
		{
			name:  "small",
			key:   storageKey('A'),
			value: []byte{0x78, 0x9c, 0x4b, 0xce, 0xcf, 0x2b, 0x49, 0xcd},
		},
		{
			name:  "medium leaf",
			key:   storageKey('B'),
			value: bytes.Repeat([]byte("v"), 1000),
		},
		{
			name:  "large internal node",
			key:   storageKey('C'),
			value: bytes.Repeat([]byte("v"), 10000),
		},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := codec.Encode(bm.key, bm.value)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecordCodec_Decode(b *testing.B) {
	codec := NewRecordCodec()

	benchmarks := []struct {
		name  string
		key   []byte
		value []byte
	}{
		{
			name:  "small",
			key:   storageKey('A'),
			value: []byte{0x78, 0x9c, 0x4b, 0xce, 0xcf, 0x2b, 0x49, 0xcd},
		},
		{
			name:  "medium leaf",
			key:   storageKey('B'),
			value: bytes.Repeat([]byte("v"), 1000),
		},
		{
			name:  "large internal node",
			key:   storageKey('C'),
			value: bytes.Repeat([]byte("v"), 10000),
		},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			encoded, err := codec.Encode(bm.key, bm.value)
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := codec.Decode(encoded)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecordCodec_RoundTrip(b *testing.B) {
	codec := NewRecordCodec()

	benchmarks := []struct {
		name  string
		key   []byte
		value []byte
	}{
		{
			name:  "small",
			key:   storageKey('A'),
			value: []byte{0x78, 0x9c, 0x4b, 0xce, 0xcf, 0x2b, 0x49, 0xcd},
		},
		{
			name:  "medium leaf",
			key:   storageKey('B'),
			value: bytes.Repeat([]byte("v"), 1000),
		},
		{
			name:  "large internal node",
			key:   storageKey('C'),
			value: bytes.Repeat([]byte("v"), 10000),
		},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				encoded, err := codec.Encode(bm.key, bm.value)
				if err != nil {
					b.Fatal(err)
				}

				_, err = codec.Decode(encoded)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkRecord_Validate(b *testing.B) {
	codec := NewRecordCodec()
	key := storageKey('D')
	value := bytes.Repeat([]byte("v"), 1000)

	encoded, err := codec.Encode(key, value)
	if err != nil {
		b.Fatal(err)
	}

	record, err := codec.Decode(encoded)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := record.Validate()
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecord_CalculateCRC32(b *testing.B) {
	key := storageKey('E')
	value := bytes.Repeat([]byte("v"), 1000)
	record := NewRecord(key, value)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = record.calculateCRC32()
	}
}

// BenchmarkRecordCodec_EncodeAllocs tracks allocations for the common case of
// a storage-key-sized key and a small compressed node payload.
func BenchmarkRecordCodec_EncodeAllocs(b *testing.B) {
	codec := NewRecordCodec()
	key := storageKey('F')
	value := []byte{0x78, 0x9c, 0x4b, 0xce, 0xcf, 0x2b, 0x49, 0xcd}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := codec.Encode(key, value)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRecordCodec_DecodeAllocs(b *testing.B) {
	codec := NewRecordCodec()
	key := storageKey('0')
	value := []byte{0x78, 0x9c, 0x4b, 0xce, 0xcf, 0x2b, 0x49, 0xcd}

	encoded, err := codec.Encode(key, value)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := codec.Decode(encoded)
		if err != nil {
			b.Fatal(err)
		}
	}
}
