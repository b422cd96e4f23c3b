package repository

import "github.com/google/uuid"

func uuidFromByte(b byte) uuid.UUID {
	var arr [16]byte
	arr[15] = b
	return arr
}
