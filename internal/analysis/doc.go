// Package analysis is the outbound side of redline. It turns the payloads
// released by the transmission gate into a prompt, calls an LLM provider,
// and parses the structured findings it returns.
//
// A response that is not valid JSON gets one repair pass before the attempt
// fails. Raw responses are cached under a BLAKE3 digest of the provider,
// model and payload, so an identical resubmission never reaches the network.
// Finding IDs are stable hashes of path, title and start line.
package analysis
