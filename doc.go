/*
Package cfddns keeps the "A" records of a Cloudflare zone pointed at the host's current public IP address.

Usage will always start with [cfddns.New],
which returns a [Client] for a single domain.
New requires the domain name whose zone will be updated and a [Provider] implementation,
usually registered with [UsingCloudflare].
Additional client configuration options are listed in the docs for New.

Each call to [Client.RunCycle] resolves the public IP, compares it with the value held by the [Cache]
and, only when it changed, rewrites every A record in the zone.
[RunDaemon] runs cycles on a fixed interval.
*/
package cfddns
