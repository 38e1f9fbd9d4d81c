// Package riskdex scores New York City addresses in-process: flood, crime and
// property sub-scores for the census tract and tax lot at an address, plus
// the tracts with the most similar risk profile.
//
//	client, err := riskdex.New(ctx,
//	    riskdex.WithDataDir("data"),
//	    riskdex.WithComplaints("data/complaints.parquet"),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	report, err := client.ScoreAddress(ctx, "621 Morgan Ave, Brooklyn, NY",
//	    riskdex.Horizon("2050s"), riskdex.TopK(3))
//	if errors.Is(err, riskdex.ErrOutOfCoverage) { ... }
//
// Without WithIndexFile or WithRedis the document index is built in memory
// on every New.
package riskdex
