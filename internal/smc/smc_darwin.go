//go:build darwin && cgo

package smc

/*
#cgo LDFLAGS: -framework IOKit
#include <IOKit/IOKitLib.h>
#include <string.h>

#define KERNEL_INDEX_SMC 2
#define SMC_CMD_READ_BYTES 5
#define SMC_CMD_READ_INDEX 8
#define SMC_CMD_READ_KEYINFO 9
#define SMC_RESULT_KEY_NOT_FOUND 0x84

typedef struct {
	unsigned char major;
	unsigned char minor;
	unsigned char build;
	unsigned char reserved[1];
	unsigned short release;
} SMCKeyDataVers;

typedef struct {
	unsigned short version;
	unsigned short length;
	unsigned int cpuPLimit;
	unsigned int gpuPLimit;
	unsigned int memPLimit;
} SMCKeyDataPLimit;

typedef struct {
	IOByteCount dataSize;
	unsigned int dataType;
	char dataAttributes;
} SMCKeyDataKeyInfo;

typedef struct {
	unsigned int key;
	SMCKeyDataVers vers;
	SMCKeyDataPLimit pLimitData;
	SMCKeyDataKeyInfo keyInfo;
	char result;
	char status;
	char data8;
	unsigned int data32;
	unsigned char bytes[32];
} SMCKeyData;

static kern_return_t smcCall(io_connect_t conn, SMCKeyData *in, SMCKeyData *out) {
	size_t outSize = sizeof(SMCKeyData);
	return IOConnectCallStructMethod(conn, KERNEL_INDEX_SMC,
		in, sizeof(SMCKeyData), out, &outSize);
}

static int smcOpen(io_connect_t *conn) {
	io_service_t svc = IOServiceGetMatchingService(kIOMasterPortDefault,
		IOServiceMatching("AppleSMC"));
	if (svc == 0) {
		return -1;
	}
	kern_return_t kr = IOServiceOpen(svc, mach_task_self(), 0, conn);
	IOObjectRelease(svc);
	return kr == KERN_SUCCESS ? 0 : -1;
}

static void smcClose(io_connect_t conn) {
	IOServiceClose(conn);
}

// smcRead fetches the raw bytes, declared size, and type code for key.
// Returns 0 on success, 1 when the key does not exist, -1 on I/O error.
static int smcRead(io_connect_t conn, unsigned int key,
		unsigned char *buf, unsigned int *size, unsigned int *type) {
	SMCKeyData in, out;
	memset(&in, 0, sizeof(in));
	memset(&out, 0, sizeof(out));
	in.key = key;
	in.data8 = SMC_CMD_READ_KEYINFO;
	if (smcCall(conn, &in, &out) != KERN_SUCCESS) {
		return -1;
	}
	if ((unsigned char)out.result == SMC_RESULT_KEY_NOT_FOUND) {
		return 1;
	}
	*size = (unsigned int)out.keyInfo.dataSize;
	*type = out.keyInfo.dataType;

	in.keyInfo.dataSize = out.keyInfo.dataSize;
	in.data8 = SMC_CMD_READ_BYTES;
	memset(&out, 0, sizeof(out));
	if (smcCall(conn, &in, &out) != KERN_SUCCESS) {
		return -1;
	}
	if ((unsigned char)out.result == SMC_RESULT_KEY_NOT_FOUND) {
		return 1;
	}
	if (out.result != 0) {
		return -1;
	}
	memcpy(buf, out.bytes, 32);
	return 0;
}

static int smcKeyAtIndex(io_connect_t conn, unsigned int index, unsigned int *key) {
	SMCKeyData in, out;
	memset(&in, 0, sizeof(in));
	memset(&out, 0, sizeof(out));
	in.data8 = SMC_CMD_READ_INDEX;
	in.data32 = index;
	if (smcCall(conn, &in, &out) != KERN_SUCCESS) {
		return -1;
	}
	*key = out.key;
	return 0;
}
*/
import "C"

import (
	"encoding/binary"
	"fmt"
	"math"
)

// conn is the live SMC handle.
type conn struct {
	c C.io_connect_t
}

// Open acquires the AppleSMC user client.
func Open() (Source, error) {
	var c C.io_connect_t
	if C.smcOpen(&c) != 0 {
		return nil, fmt.Errorf("smc: cannot open AppleSMC service")
	}
	return &conn{c: c}, nil
}

func (s *conn) Close() error {
	C.smcClose(s.c)
	return nil
}

// readRaw returns the value bytes and the 4-char type code for a key.
func (s *conn) readRaw(k Key) ([]byte, string, error) {
	var buf [32]C.uchar
	var size, typ C.uint
	switch C.smcRead(s.c, C.uint(k), &buf[0], &size, &typ) {
	case 0:
	case 1:
		return nil, "", ErrNotFound
	default:
		return nil, "", fmt.Errorf("smc: read %s failed", k)
	}
	n := int(size)
	if n > 32 {
		n = 32
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte(buf[i])
	}
	return out, Key(typ).String(), nil
}

// ReadFloat decodes scalar registers. Apple Silicon power rails are
// little-endian "flt " values; older integer types are widened.
func (s *conn) ReadFloat(k Key) (float32, error) {
	b, typ, err := s.readRaw(k)
	if err != nil {
		return 0, err
	}
	switch typ {
	case "flt ":
		if len(b) < 4 {
			return 0, fmt.Errorf("smc: short flt value for %s", k)
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
	case "ui8 ":
		if len(b) < 1 {
			return 0, fmt.Errorf("smc: short ui8 value for %s", k)
		}
		return float32(b[0]), nil
	case "ui16":
		if len(b) < 2 {
			return 0, fmt.Errorf("smc: short ui16 value for %s", k)
		}
		return float32(binary.BigEndian.Uint16(b)), nil
	case "ui32":
		if len(b) < 4 {
			return 0, fmt.Errorf("smc: short ui32 value for %s", k)
		}
		return float32(binary.BigEndian.Uint32(b)), nil
	default:
		return 0, fmt.Errorf("smc: unsupported type %q for %s", typ, k)
	}
}

// ReadTemperature decodes thermal registers. Thermal diodes report
// either sp78 fixed point (degrees * 256, signed) or plain floats.
func (s *conn) ReadTemperature(k Key) (float64, error) {
	b, typ, err := s.readRaw(k)
	if err != nil {
		return 0, err
	}
	switch typ {
	case "sp78":
		if len(b) < 2 {
			return 0, fmt.Errorf("smc: short sp78 value for %s", k)
		}
		return float64(int16(binary.BigEndian.Uint16(b))) / 256.0, nil
	case "flt ":
		if len(b) < 4 {
			return 0, fmt.Errorf("smc: short flt value for %s", k)
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
	default:
		return 0, fmt.Errorf("smc: unsupported temperature type %q for %s", typ, k)
	}
}

// Keys enumerates the full key table via the #KEY count register and
// per-index lookups.
func (s *conn) Keys() ([]Key, error) {
	b, typ, err := s.readRaw(MustKey("#KEY"))
	if err != nil {
		return nil, fmt.Errorf("smc: key count: %w", err)
	}
	if typ != "ui32" || len(b) < 4 {
		return nil, fmt.Errorf("smc: unexpected #KEY type %q", typ)
	}
	count := binary.BigEndian.Uint32(b)

	keys := make([]Key, 0, count)
	for i := uint32(0); i < count; i++ {
		var k C.uint
		if C.smcKeyAtIndex(s.c, C.uint(i), &k) != 0 {
			continue
		}
		keys = append(keys, Key(k))
	}
	return keys, nil
}
