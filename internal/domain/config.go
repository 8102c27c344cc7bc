package domain

// KeyPrefix namespaces every key this service writes to a shared Redis-protocol server.
const KeyPrefix = "vetsearch:"
