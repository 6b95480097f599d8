package strom

const VersionStr = "0.1.0"
