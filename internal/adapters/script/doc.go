// Package script runs emulator modules written in JavaScript inside an
// isolated goja runtime.
//
// The host's capabilities are exposed to the script as the global
// GonesClient object:
//
//	GonesClient.setRomName(value)
//	GonesClient.dbPut(collection, name, data)   // data: ArrayBuffer, Uint8Array or string
//	GonesClient.dbGet(collection, name)         // ArrayBuffer or null
//	GonesClient.createCanvas()                  // the module's rendering surface
//
// The script must define a global main(cartridge) and a global Gones object
// with exit(), saveState() and loadState(). cartridge is {name, data} with
// data as an ArrayBuffer.
package script
