package cassandra

// This file documents the CQL table contracts the repository relies on
// (spec §6). DDL loading is an external collaborator (out of scope, per
// spec §1) — these are comments, not executed statements. Every column
// list the repository writes must match one of these exactly, per the
// "write statements must reference only columns that exist" rule.
//
//	CREATE TABLE event_store (
//	    aggregate_id    text,
//	    sequence_number bigint,
//	    event_id        text,
//	    event_type      text,
//	    event_version   int,
//	    event_data      blob,
//	    causation_id    text,
//	    correlation_id  text,
//	    timestamp       timestamp,
//	    PRIMARY KEY (aggregate_id, sequence_number)
//	) WITH CLUSTERING ORDER BY (sequence_number ASC);
//
//	CREATE TABLE aggregate_sequence (
//	    aggregate_id    text PRIMARY KEY,
//	    current_sequence bigint,
//	    updated_at      timestamp
//	);
//
//	CREATE TABLE aggregate_snapshots (
//	    aggregate_id    text,
//	    sequence_number bigint,
//	    data            blob,
//	    format_version  int,
//	    taken_at        timestamp,
//	    PRIMARY KEY (aggregate_id, sequence_number)
//	) WITH CLUSTERING ORDER BY (sequence_number DESC);
//
//	CREATE TABLE outbox_messages (
//	    id              text PRIMARY KEY,
//	    aggregate_id    text,
//	    event_id        text,
//	    event_type      text,
//	    event_version   int,
//	    payload         blob,
//	    correlation_id  text,
//	    causation_id    text,
//	    created_at      timestamp
//	) WITH cdc = {'enabled': true, 'preimage': false, 'postimage': true}
//	  AND default_time_to_live = 86400;
//
//	CREATE TABLE projection_offsets (
//	    projection_name text,
//	    partition_id    text,
//	    last_sequence   bigint,
//	    last_event_id   text,
//	    last_processed_at timestamp,
//	    events_processed  counter_like_bigint, -- app-maintained, not a CQL counter
//	    errors_count      bigint,
//	    last_error        text,
//	    PRIMARY KEY (projection_name, partition_id)
//	);
//
//	-- outbox_messages_scylla_cdc_log is not created by this code: it is
//	-- generated automatically by the cluster because outbox_messages has
//	-- cdc enabled. Its columns (illustrative, per Scylla's CDC log
//	-- format): "cdc$stream_id" blob, "cdc$time" timeuuid,
//	-- "cdc$operation" tinyint, plus one mirrored column per outbox
//	-- column. cdc_source.go reads it with ALLOW FILTERING on "cdc$time"
//	-- since it is not part of the log table's clustering key in every
//	-- server version; ordering is still correct because cdc$time is a
//	-- timeuuid and ties are broken client-side by arrival order.
//
//	CREATE TABLE dead_letter_queue (
//	    id              text PRIMARY KEY,
//	    aggregate_id    text,
//	    event_type      text,
//	    payload         blob,
//	    error_message   text,
//	    failure_count   int,
//	    first_failed_at timestamp,
//	    last_failed_at  timestamp,
//	    created_at      timestamp
//	);
//
// The tables above are the engine's own contracts. The order aggregate
// under internal/orderdomain is only a worked example of a domain module
// built on top of them, and its read model lives in its own table,
// defined in internal/orderdomain/summary:
//
//	CREATE TABLE customer_order_summary (
//	    order_id     text PRIMARY KEY,
//	    customer_id  text,
//	    status       text,
//	    updated_at   timestamp
//	);
