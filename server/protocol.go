package server

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Message tags. Each message's length is implicit in its tag; there is no
// separate length prefix on the wire.
const (
	MsgHELO      byte = 0
	MsgTICK      byte = 1
	MsgSTRT      byte = 2
	MsgDATA      byte = 3
	MsgSIZE      byte = 4
	MsgMODR      byte = 5
	MsgMODN      byte = 6
	MsgPLYC      byte = 7
	MsgPLYU      byte = 8
	MsgReserved9 byte = 9
	MsgReserved10 byte = 10
	MsgReserved11 byte = 11
	MsgDISC      byte = 12
	MsgCHAT      byte = 13
	MsgKICK      byte = 14
)

// MaxMessage is the largest a built message may ever be.
const MaxMessage = 4096

// Field widths used by the fixed-shape protocol.
const (
	widthB = 1
	widthS = 2
	widthT = 64
	widthA = 1024
)

// msgLen returns the total wire length of a message of the given tag,
// including the 1-byte tag itself, and whether the tag is known. This
// mirrors proto_msg_len's res = 1 initializer in the reference
// implementation: every shape's length starts at 1 for the tag byte.
func msgLen(tag byte) (int, bool) {
	switch tag {
	case MsgHELO:
		return 1 + widthB + widthT + widthT + widthB, true
	case MsgTICK, MsgSTRT:
		return 1, true
	case MsgDATA:
		return 1 + widthS + widthA + widthB, true
	case MsgSIZE:
		return 1 + widthS*3, true
	case MsgMODR:
		return 1 + widthS*3 + widthB*2, true
	case MsgMODN:
		return 1 + widthS*3 + widthB, true
	case MsgPLYC:
		return 1 + widthB + widthT + widthS*3 + widthB*2, true
	case MsgPLYU:
		return 1 + widthB + widthS*3 + widthB*2, true
	case MsgReserved9:
		return 1 + widthB*6, true
	case MsgReserved10:
		return 1 + widthB*4, true
	case MsgReserved11:
		return 1 + widthB*3, true
	case MsgDISC:
		return 1 + widthB, true
	case MsgCHAT:
		return 1 + widthB + widthT, true
	case MsgKICK:
		return 1 + widthT, true
	default:
		return 0, false
	}
}

// --- field encoders/decoders ---

func putB(buf []byte, v byte) []byte { return append(buf, v) }

func putS(buf []byte, v int16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	return append(buf, tmp[:]...)
}

// putT writes s as a 64-byte space-padded (or truncated) field.
func putT(buf []byte, s string) []byte {
	var tmp [widthT]byte
	for i := range tmp {
		tmp[i] = ' '
	}
	copy(tmp[:], s)
	return append(buf, tmp[:]...)
}

// putA writes data as a 1024-byte zero-padded (or truncated) field.
func putA(buf []byte, data []byte) []byte {
	var tmp [widthA]byte
	copy(tmp[:], data)
	return append(buf, tmp[:]...)
}

func getB(body []byte, off int) byte { return body[off] }

func getS(body []byte, off int) int16 {
	return int16(binary.BigEndian.Uint16(body[off : off+2]))
}

// getT reads a 64-byte field and strips trailing spaces, per §6.
func getT(body []byte, off int) string {
	return strings.TrimRight(string(body[off:off+widthT]), " ")
}

func getA(body []byte, off int) []byte {
	out := make([]byte, widthA)
	copy(out, body[off:off+widthA])
	return out
}

// --- coordinate encoding, §6 "Coordinate encoding of players" ---

func encodeCoord(f float32) int16 { return int16(math.Round(float64(f) * 32)) }
func decodeCoord(v int16) float32 { return float32(v) / 32 }

// encodeYaw maps a yaw in degrees [0,360) to the wire's 255×-normalized byte.
func encodeYaw(degrees float32) byte {
	norm := degrees / 360
	return byte(math.Round(float64(norm) * 255))
}

func decodeYaw(v byte) float32 { return (float32(v) / 255) * 360 }

// encodePitch maps a pitch in degrees to the wire's 64× signed byte.
func encodePitch(degrees float32) byte { return byte(int8(math.Round(float64(degrees) * 64))) }

func decodePitch(v byte) float32 { return float32(int8(v)) / 64 }

// --- message builders ---

func buildHelo(proto byte, name, key string, flag byte) []byte {
	buf := make([]byte, 0, 131)
	buf = putB(buf, MsgHELO)
	buf = putB(buf, proto)
	buf = putT(buf, name)
	buf = putT(buf, key)
	buf = putB(buf, flag)
	return buf
}

func buildTick() []byte { return []byte{MsgTICK} }
func buildStrt() []byte { return []byte{MsgSTRT} }

// buildData builds one 1024-byte world-transmit chunk. chunkLen is the
// number of meaningful bytes in chunk (≤ 1024); percent is 0-100 progress.
func buildData(chunkLen int16, chunk []byte, percent byte) []byte {
	buf := make([]byte, 0, 1028)
	buf = putB(buf, MsgDATA)
	buf = putS(buf, chunkLen)
	buf = putA(buf, chunk)
	buf = putB(buf, percent)
	return buf
}

func buildSize(sx, sy, sz int16) []byte {
	buf := make([]byte, 0, 7)
	buf = putB(buf, MsgSIZE)
	buf = putS(buf, sx)
	buf = putS(buf, sy)
	buf = putS(buf, sz)
	return buf
}

func buildModN(x, y, z int16, newT byte) []byte {
	buf := make([]byte, 0, 8)
	buf = putB(buf, MsgMODN)
	buf = putS(buf, x)
	buf = putS(buf, y)
	buf = putS(buf, z)
	buf = putB(buf, newT)
	return buf
}

func buildPlyc(slot byte, name string, x, y, z int16, yaw, pitch byte) []byte {
	buf := make([]byte, 0, 74)
	buf = putB(buf, MsgPLYC)
	buf = putB(buf, slot)
	buf = putT(buf, name)
	buf = putS(buf, x)
	buf = putS(buf, y)
	buf = putS(buf, z)
	buf = putB(buf, yaw)
	buf = putB(buf, pitch)
	return buf
}

func buildPlyu(slot byte, x, y, z int16, yaw, pitch byte) []byte {
	buf := make([]byte, 0, 10)
	buf = putB(buf, MsgPLYU)
	buf = putB(buf, slot)
	buf = putS(buf, x)
	buf = putS(buf, y)
	buf = putS(buf, z)
	buf = putB(buf, yaw)
	buf = putB(buf, pitch)
	return buf
}

func buildDisc(slot byte) []byte {
	return []byte{MsgDISC, slot}
}

func buildChat(slot byte, text string) []byte {
	buf := make([]byte, 0, 66)
	buf = putB(buf, MsgCHAT)
	buf = putB(buf, slot)
	buf = putT(buf, text)
	return buf
}

func buildKick(reason string) []byte {
	buf := make([]byte, 0, 65)
	buf = putB(buf, MsgKICK)
	buf = putT(buf, reason)
	return buf
}

// --- message decoders (client -> server) ---

type heloMsg struct {
	Proto byte
	Name  string
	Key   string
	Flag  byte
}

func decodeHelo(body []byte) heloMsg {
	return heloMsg{
		Proto: getB(body, 0),
		Name:  getT(body, 1),
		Key:   getT(body, 1+widthT),
		Flag:  getB(body, 1+widthT*2),
	}
}

type modrMsg struct {
	X, Y, Z    int16
	OldT, NewT byte
}

func decodeModR(body []byte) modrMsg {
	return modrMsg{
		X:    getS(body, 0),
		Y:    getS(body, widthS),
		Z:    getS(body, widthS*2),
		OldT: getB(body, widthS*3),
		NewT: getB(body, widthS*3+widthB),
	}
}

type plyuMsg struct {
	Slot       byte
	X, Y, Z    int16
	Yaw, Pitch byte
}

func decodePlyu(body []byte) plyuMsg {
	return plyuMsg{
		Slot:  getB(body, 0),
		X:     getS(body, widthB),
		Y:     getS(body, widthB+widthS),
		Z:     getS(body, widthB+widthS*2),
		Yaw:   getB(body, widthB+widthS*3),
		Pitch: getB(body, widthB+widthS*3+widthB),
	}
}

type chatMsg struct {
	Slot byte
	Text string
}

func decodeChat(body []byte) chatMsg {
	return chatMsg{
		Slot: getB(body, 0),
		Text: getT(body, widthB),
	}
}

// describeReserved renders a reserved (9-11) message's raw bytes for the
// accept-and-ignore warning log required by §9's open question.
func describeReserved(tag byte, body []byte) string {
	return fmt.Sprintf("tag=%d bytes=%x", tag, body)
}
