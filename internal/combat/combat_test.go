package combat

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/testutil"
)

func TestEffectiveDamageAppliesResistance(t *testing.T) {
	r := &item.Resistances{Slash: 0.5}
	require.Equal(t, 5.0, EffectiveDamage(10, DamageSlash, r))
	require.Equal(t, 10.0, EffectiveDamage(10, DamagePierce, r), "no pierce resistance set, unreduced")
}

func TestEffectiveDamageClampsResistance(t *testing.T) {
	r := &item.Resistances{Blunt: 5}
	require.Equal(t, 0.0, EffectiveDamage(10, DamageBlunt, r), "resistance over 1 must fully absorb, not invert")
}

func TestAttackAppliesResistanceThenDestroys(t *testing.T) {
	box := &entity.WoodenStorageBox{Placement: entity.Placement{Health: 20, MaxHealth: 20}}
	resist := &item.Resistances{Blunt: 0.5}
	attacker := ids.RandomIdentity()

	destroyed := Attack(box, 30, DamageBlunt, resist, attacker, 42)
	require.False(t, destroyed, "30 raw * 0.5 resist = 15, not lethal against 20 health")
	require.Equal(t, 5.0, box.Health)

	destroyed = Attack(box, 30, DamageBlunt, resist, attacker, 43)
	require.True(t, destroyed)
}

func TestRollBarrelLootCapsAtThreeDrops(t *testing.T) {
	table := []LootRow{
		{DefID: "a", Tier: "common", DropChance: 1, MinQty: 1, MaxQty: 1},
		{DefID: "b", Tier: "common", DropChance: 1, MinQty: 1, MaxQty: 1},
		{DefID: "c", Tier: "rare", DropChance: 1, MinQty: 1, MaxQty: 1},
		{DefID: "d", Tier: "rare", DropChance: 1, MinQty: 1, MaxQty: 1},
	}
	drops := RollBarrelLoot(table, rand.New(rand.NewSource(1)))
	require.Len(t, drops, 3)
}

func TestRollBarrelLootGuaranteesCommonWhenNothingHits(t *testing.T) {
	table := []LootRow{
		{DefID: "a", Tier: "common", DropChance: 0, MinQty: 1, MaxQty: 1},
		{DefID: "b", Tier: "rare", DropChance: 0, MinQty: 1, MaxQty: 1},
	}
	drops := RollBarrelLoot(table, rand.New(rand.NewSource(1)))
	require.Len(t, drops, 1)
	require.Equal(t, "a", drops[0].DefID)
}

func TestRepairFailsWhenAlreadyFull(t *testing.T) {
	owner := ids.RandomIdentity()
	s := &RepairState{Health: 100, MaxHealth: 100, Owner: owner}
	res, err := Repair(s, owner, 1000, map[string]int{"wood": 100})
	require.NoError(t, err)
	require.True(t, res.Failed)
}

func TestRepairRejectsNonOwner(t *testing.T) {
	owner := ids.RandomIdentity()
	other := ids.RandomIdentity()
	s := &RepairState{Health: 50, MaxHealth: 100, Owner: owner}
	_, err := Repair(s, other, 1000, nil)
	require.ErrorContains(t, err, "Not structure owner")
}

func TestRepairAppliesPvPCooldown(t *testing.T) {
	owner := ids.RandomIdentity()
	attacker := ids.RandomIdentity()
	s := &RepairState{Health: 50, MaxHealth: 100, Owner: owner, LastHitTimeUs: 1000, LastDamagedBy: attacker}

	res, err := Repair(s, owner, 1000+299*1_000_000, map[string]int{"wood": 100})
	require.NoError(t, err)
	require.True(t, res.Failed, "299s after a non-owner hit, repair must still fail")

	res, err = Repair(s, owner, 1000+301*1_000_000, map[string]int{"wood": 100})
	require.NoError(t, err)
	require.False(t, res.Failed, "301s after a non-owner hit, repair must succeed")
	require.Equal(t, 50.0, res.Healed)
	require.Equal(t, 100.0, s.Health)
}

func TestRepairHealsAtMostFiftyAndScalesCost(t *testing.T) {
	owner := ids.RandomIdentity()
	s := &RepairState{Health: 400, MaxHealth: 500, Owner: owner}

	res, err := Repair(s, owner, 0, map[string]int{"wood": 200, "stone": 100})
	require.NoError(t, err)
	require.False(t, res.Failed)
	require.Equal(t, 50.0, res.Healed, "deficit is 100 but repair heals at most RepairAmount")
	require.Equal(t, 450.0, s.Health)
	// ceil(200 * 50/500) = 20, ceil(100 * 50/500) = 10
	require.Equal(t, 20, res.Consumed["wood"])
	require.Equal(t, 10, res.Consumed["stone"])
}

func TestReleaseContainerContentsDropsEachSlot(t *testing.T) {
	s := testutil.OpenStore(t)
	box := &entity.WoodenStorageBox{Placement: entity.Placement{PosX: 1, PosY: 2, ChunkIndex: 0}, SlotCount: 2}
	require.NoError(t, entity.InsertBox(s.DB, box))

	for slot := 0; slot < 2; slot++ {
		require.NoError(t, item.Upsert(s.DB, item.Instance{
			InstanceID: item.NewInstanceID(), DefID: "wood", Quantity: 10,
			Location: box.SlotLocation(slot),
		}))
	}

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, ReleaseContainerContents(tx, box, box.PosX, box.PosY, box.ChunkIndex, 999))
	require.NoError(t, tx.Commit())

	list, err := item.ListContainer(s.DB, item.ContainerBox, box.ID)
	require.NoError(t, err)
	require.Empty(t, list, "slots must be empty after release")
}
