// Vidrec - Video Recommendation and Feedback Learning Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vidrec

/*
Package recommend implements the hybrid video recommendation engine.

The engine blends two signals per candidate video:

  - content: cosine similarity between the user's preference vector and the
    video's TF-IDF embedding (see the embedding subpackage)
  - collaborative: the similarity-weighted mean rating given to the video by
    the user's nearest neighbors (see the similarity subpackage)

	score = Alpha*content + (1-Alpha)*collaborative

Profiles learn from feedback. A watch, rating or like moves the preference
vector toward the video's embedding by a step proportional to how positive
the feedback was; ratings below the neutral rating push it away.

# Vocabulary snapshots

Every stored embedding and preference vector is tagged with the fingerprint
of the vocabulary it was computed against. The engine only ever serves one
snapshot, and any vector tagged with another fingerprint halts scoring with
KindInconsistentState. Snapshots change only under the exclusive corpus
lock, either eagerly during an ingest that introduces a new term or in
Retrain.

# Usage

	engine, err := recommend.NewEngine(cfg, st, logger)
	if err != nil {
		return err
	}
	if err := engine.Load(ctx); err != nil {
		return err
	}

	_, err = engine.RecordWatch(ctx, recommend.WatchInput{
		UserID:  "u1",
		VideoID: "v1",
		Rating:  models.Float64Ptr(5),
	})

	resp, err := engine.Recommend(ctx, recommend.Request{UserID: "u1", N: 10})

# Errors

Operations return *Error. Use errors.Is with ErrNotFound, ErrInvalidInput,
ErrInconsistentState or ErrStorageFailure, or KindOf to branch on the kind.
*/
package recommend
